package comments

import (
	"iter"

	"subboard/internal/models"
)

// FetchLimit bounds how many comment rows of a post are assembled. Rows past
// the limit are never shown.
const FetchLimit = 500

// Node is one comment in an assembled reply tree. ChildCommentCount is the
// live number of direct replies in storage and may exceed len(Children) when
// replies fell outside the fetched rows.
type Node struct {
	Comment           *models.Comment `json:"comment"`
	ChildCommentCount int             `json:"child_comment_count"`
	Children          []*Node         `json:"children"`
}

// Forest is the ordered list of root nodes.
type Forest []*Node

// Assemble builds the reply forest of postID from rows in the order given.
// A comment whose parent has not been placed yet becomes a root; rows of
// other posts are skipped. The input order is never changed.
func Assemble(rows []*models.Comment, postID uint) Forest {
	forest := Forest{}
	placed := make(map[uint]*Node, len(rows))

	for _, c := range rows {
		if c == nil || c.PostID != postID {
			continue
		}
		node := &Node{Comment: c, Children: []*Node{}}
		if c.ParentID != nil {
			if parent, ok := placed[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				placed[c.ID] = node
				continue
			}
		}
		forest = append(forest, node)
		placed[c.ID] = node
	}
	return forest
}

// All walks the forest depth first, parents before children.
func (f Forest) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(nodes []*Node) bool
		walk = func(nodes []*Node) bool {
			for _, n := range nodes {
				if !yield(n) || !walk(n.Children) {
					return false
				}
			}
			return true
		}
		walk(f)
	}
}

// IDs returns every comment id in the forest in walk order.
func (f Forest) IDs() []uint {
	var ids []uint
	for n := range f.All() {
		ids = append(ids, n.Comment.ID)
	}
	return ids
}

// SetChildCounts copies live direct-reply counts onto the nodes. Ids missing
// from counts have no replies.
func (f Forest) SetChildCounts(counts map[uint]int) {
	for n := range f.All() {
		n.ChildCommentCount = counts[n.Comment.ID]
	}
}
