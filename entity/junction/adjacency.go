package junction

import (
	"slices"

	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// ResolveAdjacency 相邻路口相位协调
// 功能：对每个配置的相邻对，若两者相位不同，则按两路口合计负荷重新选择并同时写回
// 参数：decisions-本周期全部路口决策（原地修改），adjacency-相邻配对
// 说明：
//   - 两个ID都必须出现在本周期决策中，否则跳过
//   - EMERGENCY路口既不会被改写，也不参与改写邻居
//   - 只做逐对处理，不做全局不动点迭代，三个以上互相邻接时可能残留不一致
//   - 按配对键排序处理，保证结果可复现
func ResolveAdjacency(decisions map[string]*Decision, adjacency map[string]string) {
	keys := lo.Keys(adjacency)
	slices.Sort(keys)
	for _, id := range keys {
		neighbourID := adjacency[id]
		d1, ok1 := decisions[id]
		d2, ok2 := decisions[neighbourID]
		if !ok1 || !ok2 {
			log.Debugf("adjacency %s-%s skipped: missing snapshot", id, neighbourID)
			continue
		}
		if id == neighbourID || d1.IsEmergency() || d2.IsEmergency() {
			continue
		}
		if d1.Phase == d2.Phase {
			continue
		}
		total := d1.Load.Add(d2.Load)
		phase := lo.Ternary(total.A >= total.B, entity.PhaseA, entity.PhaseB)
		log.Debugf("adjacency %s(%s)-%s(%s) -> %s", id, d1.Phase, neighbourID, d2.Phase, phase)
		for _, d := range []*Decision{d1, d2} {
			if d.Phase != phase {
				d.Phase = phase
				d.Reason = ReasonAdjacency
			}
		}
	}
}
