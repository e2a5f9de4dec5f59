// Package tree turns stored entities into the flat node list a client-side
// tree widget (jsTree) renders: bundle roots at the top level, entities as
// their children.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NodeID is a tree node id or parent reference. Entity nodes use integer
// ids, bundle roots and the "#" top-level marker use strings.
// The zero value is an unset id.
type NodeID struct {
	str     string
	num     int64
	numeric bool
	set     bool
}

// IntID returns a numeric NodeID.
func IntID(n int64) NodeID { return NodeID{num: n, numeric: true, set: true} }

// StringID returns a string NodeID.
func StringID(s string) NodeID { return NodeID{str: s, set: true} }

// RootParent is the parent of every top-level node.
var RootParent = StringID("#")

// ParseID returns a numeric id for decimal input and a string id otherwise.
func ParseID(s string) NodeID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntID(n)
	}
	return StringID(s)
}

// IsZero reports whether the id is unset.
func (id NodeID) IsZero() bool { return !id.set }

// IsRoot reports whether id is the top-level marker "#".
func (id NodeID) IsRoot() bool { return id.set && !id.numeric && id.str == "#" }

// String returns the canonical text form used for comparisons.
func (id NodeID) String() string {
	if id.numeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Equal compares ids by canonical text form, so IntID(10) equals
// StringID("10").
func (id NodeID) Equal(other NodeID) bool {
	return id.set == other.set && id.String() == other.String()
}

func (id NodeID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(strconv.FormatInt(id.num, 10)), nil
	}
	return json.Marshal(id.str)
}

func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("tree: node id %s is neither a string nor an integer", data)
	}
	*id = IntID(n)
	return nil
}

// Record is a raw tree record as produced by a Builder.
type Record struct {
	ID     NodeID
	Parent NodeID
	Text   string
}

// State carries the widget's per-node flags.
type State struct {
	Selected bool `json:"selected"`
}

// Node is the record shape the tree widget consumes.
type Node struct {
	ID     NodeID `json:"id"`
	Parent NodeID `json:"parent"`
	Text   string `json:"text"`
	State  State  `json:"state"`
}
