package junction

import (
	"slices"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Grid 网格路网拓扑
// 功能：rows×cols个路口按行优先编号为"1".."rows*cols"，上下左右相邻
// 说明：拓扑为静态配置，不做自动发现
type Grid struct {
	rows, cols int
	g          *simple.UndirectedGraph
}

// NewGrid 创建网格拓扑
// 参数：rows-行数，cols-列数，任一为0时返回空网格
func NewGrid(rows, cols int) *Grid {
	g := simple.NewUndirectedGraph()
	if rows <= 0 || cols <= 0 {
		return &Grid{g: g}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.AddNode(simple.Node(gridNodeID(r, c, cols)))
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := gridNodeID(r, c, cols)
			if c+1 < cols {
				g.SetEdge(simple.Edge{F: simple.Node(id), T: simple.Node(id + 1)})
			}
			if r+1 < rows {
				g.SetEdge(simple.Edge{F: simple.Node(id), T: simple.Node(id + int64(cols))})
			}
		}
	}
	return &Grid{rows: rows, cols: cols, g: g}
}

func gridNodeID(row, col, cols int) int64 {
	return int64(row*cols + col + 1)
}

// IDs 按编号顺序返回全部路口ID
func (g *Grid) IDs() []string {
	ids := make([]string, 0, g.rows*g.cols)
	for i := 1; i <= g.rows*g.cols; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

// Neighbours 获取路口在网格中的邻居ID（升序）
// 说明：非数字ID或不在网格中的ID没有邻居
func (g *Grid) Neighbours(id string) []string {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || g.g.Node(n) == nil {
		return nil
	}
	nodes := graph.NodesOf(g.g.From(n))
	ids := make([]int64, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID())
	}
	slices.Sort(ids)
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}
