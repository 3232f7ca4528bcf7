package gee

import "strings"

type node struct {
	pattern  string // full route on leaf nodes, e.g. /stylesheets/*filepath
	part     string // this segment, e.g. :name or *filepath
	children []*node
	isWild   bool // part starts with ':' or '*'
}

/*
匹配 /javascripts/vendor/app.js 时：
第一层 javascripts 精确匹配，
第二层 *filepath 通配，剩下的 vendor/app.js 全部归它，
查找到此为止。
*/

// 第一个匹配成功的节点，用于插入
func (n *node) matchChild(part string) *node {
	for _, child := range n.children {
		if child.part == part {
			return child
		}
	}
	return nil
}

// matchChildren returns exact matches before wildcards so static routes win
// over parameters at the same depth.
func (n *node) matchChildren(part string) []*node {
	nodes := make([]*node, 0, len(n.children))
	for _, child := range n.children {
		if child.part == part {
			nodes = append(nodes, child)
		}
	}
	for _, child := range n.children {
		if child.isWild && child.part != part {
			nodes = append(nodes, child)
		}
	}
	return nodes
}

func (n *node) insert(pattern string, parts []string, height int) {
	if len(parts) == height {
		n.pattern = pattern
		return
	}
	part := parts[height]
	child := n.matchChild(part)
	if child == nil {
		child = &node{
			part:   part,
			isWild: part[0] == ':' || part[0] == '*',
		}
		n.children = append(n.children, child)
	}
	child.insert(pattern, parts, height+1)
}

func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}

	for _, child := range n.matchChildren(parts[height]) {
		if result := child.search(parts, height+1); result != nil {
			return result
		}
	}
	return nil
}

// travel collects every node that terminates a route.
func (n *node) travel(list *[]*node) {
	if n.pattern != "" {
		*list = append(*list, n)
	}
	for _, child := range n.children {
		child.travel(list)
	}
}
