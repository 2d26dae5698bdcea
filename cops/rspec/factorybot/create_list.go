// Package factorybot holds the cops of the FactoryBot department.
package factorybot

import (
	"fmt"
	"strings"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/pattern"
)

// Styles of CreateList.
const (
	StyleCreateList = "create_list"
	StyleNTimes     = "n_times"
)

const (
	MessageCreateList = "Prefer create_list."
	MessageNTimes     = "Prefer %s.times."
)

var (
	nTimesBlock     = pattern.MustCompile("(block (send (int _) :times) (args) $_)")
	factoryCall     = pattern.MustCompile("(send ${(const nil? {:FactoryGirl :FactoryBot}) nil?} :create (sym $_) $...)")
	factoryListCall = pattern.MustCompile("(send ${(const nil? {:FactoryGirl :FactoryBot}) nil?} :create_list (sym $_) $...)")
)

// CreateList enforces one way of creating several records:
//
//	3.times { create :user } # create_list style flags this
//	create_list :user, 3     # n_times style flags this
type CreateList struct {
	style string
}

// NewCreateList returns the cop enforcing style.
func NewCreateList(style string) (*CreateList, error) {
	switch style {
	case "":
		style = StyleCreateList
	case StyleCreateList, StyleNTimes:
	default:
		return nil, fmt.Errorf("FactoryBot/CreateList: unsupported style %q", style)
	}
	return &CreateList{style: style}, nil
}

func (*CreateList) Name() string { return "FactoryBot/CreateList" }

func (*CreateList) SupportedStyles() []string {
	return []string{StyleCreateList, StyleNTimes}
}

func (c *CreateList) Style() string { return c.style }

func (c *CreateList) OnBlock(p *cop.Pass, node *ast.Node) {
	if c.style != StyleCreateList {
		return
	}
	res := nTimesBlock.Match(node)
	if !res.OK || !factoryCall.Matches(res.Node(0)) {
		return
	}
	p.AddNodeOffense(node.SendNode(), MessageCreateList)
}

func (c *CreateList) OnSend(p *cop.Pass, node *ast.Node) {
	if c.style != StyleNTimes {
		return
	}
	res := factoryListCall.Match(node)
	if !res.OK {
		return
	}
	options := res.Nodes(2)
	if len(options) == 0 {
		return
	}
	p.AddOffense(node, node.Loc().Selector, fmt.Sprintf(MessageNTimes, options[0].Source()))
}

func (c *CreateList) Autocorrect(_ *cop.Pass, node *ast.Node) cop.Correction {
	if c.style == StyleCreateList {
		return nTimesToCreateList(node)
	}
	return createListToNTimes(node)
}

// nTimesToCreateList rewrites the block around the `N.times` call node.
func nTimesToCreateList(node *ast.Node) cop.Correction {
	block := node.Parent()
	if block == nil || block.SendNode() != node {
		return nil
	}
	body := block.Body()
	res := factoryCall.Match(body)
	if !res.OK {
		return nil
	}

	args := fmt.Sprintf(":%s, %s", res.Symbol(1), node.Receiver().Source()) + optionsString(res.Nodes(2))
	replacement := formatReceiver(res.Node(0)) + formatMethodCall(body, "create_list", args)
	return func(corr *cop.Corrector) {
		corr.ReplaceNode(block, replacement)
	}
}

func createListToNTimes(node *ast.Node) cop.Correction {
	res := factoryListCall.Match(node)
	if !res.OK {
		return nil
	}
	options := res.Nodes(2)
	if len(options) == 0 {
		return nil
	}

	args := ":" + string(res.Symbol(1)) + optionsString(options[1:])
	call := formatReceiver(res.Node(0)) + formatMethodCall(node, "create", args)
	replacement := fmt.Sprintf("%s.times { %s }", options[0].Source(), call)
	return func(corr *cop.Corrector) {
		corr.ReplaceNode(node, replacement)
	}
}

func optionsString(options []*ast.Node) string {
	var b strings.Builder
	for _, opt := range options {
		b.WriteString(", ")
		b.WriteString(opt.Source())
	}
	return b.String()
}

func formatMethodCall(node *ast.Node, method, args string) string {
	if node.Parenthesized() {
		return method + "(" + args + ")"
	}
	return method + " " + args
}

func formatReceiver(recv *ast.Node) string {
	if recv == nil {
		return ""
	}
	return recv.Source() + "."
}
