package costing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMissingReference   = errors.New("reference not found")
	ErrCyclicReference    = errors.New("cyclic recipe reference")
	ErrDegenerateYield    = errors.New("recipe yield must be positive")
	ErrAmbiguousReference = errors.New("reference matches both a filling recipe and an ingredient")
)

// IssueKind 结构性数据问题分类
type IssueKind string

const (
	IssueMissingReference   IssueKind = "missing_reference"
	IssueCyclicReference    IssueKind = "cyclic_reference"
	IssueDegenerateYield    IssueKind = "degenerate_yield"
	IssueAmbiguousReference IssueKind = "ambiguous_reference"
)

// Err 对应的哨兵错误，便于调用方 errors.Is 判断
func (k IssueKind) Err() error {
	switch k {
	case IssueMissingReference:
		return ErrMissingReference
	case IssueCyclicReference:
		return ErrCyclicReference
	case IssueDegenerateYield:
		return ErrDegenerateYield
	case IssueAmbiguousReference:
		return ErrAmbiguousReference
	}
	return nil
}

// Issue 计算过程中被吸收的数据问题。Path 为从根到出问题节点的引用链
type Issue struct {
	Kind     IssueKind `json:"kind"`
	NodeKind NodeKind  `json:"node_kind"`
	Ref      string    `json:"ref"`
	Path     []string  `json:"path,omitempty"`
}

func (i Issue) Error() string {
	if len(i.Path) > 0 {
		return fmt.Sprintf("%s %q (%s): %v", i.NodeKind, i.Ref, strings.Join(i.Path, " → "), i.Kind.Err())
	}
	return fmt.Sprintf("%s %q: %v", i.NodeKind, i.Ref, i.Kind.Err())
}

func (i Issue) Unwrap() error {
	return i.Kind.Err()
}

func (i Issue) key() string {
	return string(i.Kind) + "|" + string(i.NodeKind) + "|" + i.Ref + "|" + strings.Join(i.Path, "/")
}

// issueLog 去重收集问题，保持首次出现的顺序
type issueLog struct {
	items []Issue
	seen  map[string]bool
}

func (l *issueLog) add(issue Issue) {
	if l == nil {
		return
	}
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	k := issue.key()
	if l.seen[k] {
		return
	}
	l.seen[k] = true
	l.items = append(l.items, issue)
}

func (l *issueLog) merge(issues []Issue) {
	for _, issue := range issues {
		l.add(issue)
	}
}

func (l *issueLog) list() []Issue {
	if l == nil || len(l.items) == 0 {
		return nil
	}
	out := make([]Issue, len(l.items))
	copy(out, l.items)
	return out
}

// sortIssues 按 kind/node/ref/path 排序
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].key() < issues[j].key()
	})
}
