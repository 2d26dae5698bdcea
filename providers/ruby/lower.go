package ruby

import (
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/rspecfx/ast"
)

// offset converts a tree-sitter byte offset into an int.
func offset(b uint32) int {
	n, err := safecast.Conv[int](b)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// lowerer turns a tree-sitter Ruby tree into ast nodes.
type lowerer struct {
	src  *ast.Source
	text []byte

	// locals maps a local variable name to the offset of its first binding.
	locals map[string]int
	// heredocs maps a heredoc opener's start offset to its body.
	heredocs map[int]*sitter.Node
}

func lowerFile(root *sitter.Node, src *ast.Source) *ast.File {
	l := &lowerer{
		src:      src,
		text:     []byte(src.Text()),
		locals:   make(map[string]int),
		heredocs: make(map[int]*sitter.Node),
	}
	var openers, bodies []*sitter.Node
	l.prepass(root, &openers, &bodies)
	for i, opener := range openers {
		if i < len(bodies) {
			l.heredocs[offset(opener.StartByte())] = bodies[i]
		}
	}

	stmts := l.statements(root)
	return &ast.File{Source: src, Root: l.wrapStatements(stmts)}
}

// prepass records local variable bindings and heredoc parts in document
// order.
func (l *lowerer) prepass(n *sitter.Node, openers, bodies *[]*sitter.Node) {
	switch n.Type() {
	case "heredoc_beginning":
		*openers = append(*openers, n)
	case "heredoc_body":
		*bodies = append(*bodies, n)
	case "assignment", "operator_assignment":
		if left := n.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
			l.bind(left)
		}
	case "block_parameters", "lambda_parameters", "method_parameters":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			l.bindParam(n.NamedChild(i))
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			l.prepass(c, openers, bodies)
		}
	}
}

func (l *lowerer) bind(id *sitter.Node) {
	name := id.Content(l.text)
	at := offset(id.StartByte())
	if prev, ok := l.locals[name]; !ok || at < prev {
		l.locals[name] = at
	}
}

func (l *lowerer) bindParam(p *sitter.Node) {
	if p == nil {
		return
	}
	if p.Type() == "identifier" {
		l.bind(p)
		return
	}
	if name := p.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
		l.bind(name)
		return
	}
	for i := 0; i < int(p.NamedChildCount()); i++ {
		l.bindParam(p.NamedChild(i))
	}
}

// skipped reports nodes that never become ast nodes.
func skipped(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "heredoc_body", "empty_statement", "uninterpreted":
		return true
	}
	return false
}

// end is the end offset of n ignoring trailing comments and heredoc bodies,
// which tree-sitter attaches to whatever node is open at the line break.
func (l *lowerer) end(n *sitter.Node) int {
	for i := int(n.ChildCount()) - 1; i >= 0; i-- {
		c := n.Child(i)
		if c == nil || skipped(c) {
			continue
		}
		if c.StartByte() == c.EndByte() && c.ChildCount() == 0 {
			continue
		}
		return l.end(c)
	}
	return offset(n.EndByte())
}

func (l *lowerer) rangeOf(n *sitter.Node) ast.Range {
	if n == nil {
		return ast.NoRange
	}
	return ast.NewRange(offset(n.StartByte()), l.end(n))
}

func (l *lowerer) span(from, to *sitter.Node) ast.Range {
	return ast.NewRange(offset(from.StartByte()), l.end(to))
}

// statements flattens the statement containers under n.
func (l *lowerer) statements(n *sitter.Node) []*ast.Node {
	var out []*ast.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || skipped(c) {
			continue
		}
		switch c.Type() {
		case "block_body", "body_statement", "then", "do":
			out = append(out, l.statements(c)...)
		case "block_parameters":
		default:
			if node := l.lower(c); node != nil {
				out = append(out, node)
			}
		}
	}
	return out
}

// wrapStatements returns nil, the only statement, or a begin node.
func (l *lowerer) wrapStatements(stmts []*ast.Node) *ast.Node {
	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	}
	rng := stmts[0].Range().Join(stmts[len(stmts)-1].Range())
	children := make([]any, len(stmts))
	for i, s := range stmts {
		children[i] = s
	}
	return ast.New(l.src, ast.Begin, ast.Loc(rng), children...)
}

func (l *lowerer) lower(n *sitter.Node) *ast.Node {
	if n == nil || skipped(n) {
		return nil
	}
	rng := l.rangeOf(n)

	switch n.Type() {
	case "call", "method_call", "command", "command_call":
		return l.lowerCall(n)
	case "identifier":
		name := n.Content(l.text)
		if at, ok := l.locals[name]; ok && at <= rng.Begin {
			return ast.New(l.src, ast.Lvar, ast.Loc(rng), ast.Symbol(name))
		}
		loc := ast.Loc(rng)
		loc.Selector = rng
		return ast.New(l.src, ast.Send, loc, nil, ast.Symbol(name))
	case "constant":
		loc := ast.Loc(rng)
		loc.Selector = rng
		return ast.New(l.src, ast.Const, loc, nil, ast.Symbol(n.Content(l.text)))
	case "scope_resolution":
		return l.lowerScope(n)
	case "integer":
		text := strings.ReplaceAll(n.Content(l.text), "_", "")
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return ast.New(l.src, ast.Int, ast.Loc(rng), int64(0))
		}
		return ast.New(l.src, ast.Int, ast.Loc(rng), v)
	case "float":
		return ast.New(l.src, ast.Float, ast.Loc(rng), n.Content(l.text))
	case "simple_symbol":
		return ast.New(l.src, ast.Sym, ast.Loc(rng), ast.Symbol(strings.TrimPrefix(n.Content(l.text), ":")))
	case "hash_key_symbol":
		return ast.New(l.src, ast.Sym, ast.Loc(rng), ast.Symbol(n.Content(l.text)))
	case "delimited_symbol":
		if hasInterpolation(n) {
			return l.generic(n, ast.Dsym)
		}
		return ast.New(l.src, ast.Sym, ast.Loc(rng), ast.Symbol(l.stringValue(n)))
	case "string", "chained_string":
		if hasInterpolation(n) {
			return l.generic(n, ast.Dstr)
		}
		return ast.New(l.src, ast.Str, ast.Loc(rng), l.stringValue(n))
	case "heredoc_beginning":
		return l.lowerHeredoc(n)
	case "true":
		return ast.New(l.src, ast.True, ast.Loc(rng))
	case "false":
		return ast.New(l.src, ast.False, ast.Loc(rng))
	case "nil":
		return ast.New(l.src, ast.Nil, ast.Loc(rng))
	case "self":
		return ast.New(l.src, ast.Self, ast.Loc(rng))
	case "array":
		loc := l.delimited(n)
		return ast.New(l.src, ast.Array, loc, l.lowerAll(l.namedChildren(n))...)
	case "hash":
		loc := l.delimited(n)
		return ast.New(l.src, ast.Hash, loc, l.lowerAll(l.namedChildren(n))...)
	case "pair":
		key := l.lower(n.ChildByFieldName("key"))
		value := l.lower(n.ChildByFieldName("value"))
		return ast.New(l.src, ast.Pair, ast.Loc(rng), orNil(key), orNil(value))
	case "splat_argument", "splat_parameter":
		return l.generic(n, ast.Splat)
	case "hash_splat_argument", "hash_splat_parameter":
		return l.generic(n, ast.Kwsplat)
	case "block_argument":
		return l.generic(n, ast.BlockPass)
	case "parenthesized_statements":
		return ast.New(l.src, ast.Begin, ast.Loc(rng), l.lowerAll(l.statementNodes(n))...)
	case "binary":
		return l.lowerBinary(n)
	case "assignment":
		left := n.ChildByFieldName("left")
		if left != nil && left.Type() == "identifier" {
			value := l.lower(n.ChildByFieldName("right"))
			return ast.New(l.src, ast.Lvasgn, ast.Loc(rng), ast.Symbol(left.Content(l.text)), orNil(value))
		}
	case "instance_variable":
		return ast.New(l.src, "ivar", ast.Loc(rng), ast.Symbol(n.Content(l.text)))
	case "global_variable":
		return ast.New(l.src, "gvar", ast.Loc(rng), ast.Symbol(n.Content(l.text)))
	case "class_variable":
		return ast.New(l.src, "cvar", ast.Loc(rng), ast.Symbol(n.Content(l.text)))
	}

	return l.generic(n, ast.Type(n.Type()))
}

// generic keeps the construct's own type and lowers its named children.
func (l *lowerer) generic(n *sitter.Node, typ ast.Type) *ast.Node {
	return ast.New(l.src, typ, ast.Loc(l.rangeOf(n)), l.lowerAll(l.namedChildren(n))...)
}

func (l *lowerer) namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || skipped(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (l *lowerer) statementNodes(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range l.namedChildren(n) {
		switch c.Type() {
		case "block_body", "body_statement", "then":
			out = append(out, l.statementNodes(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

func (l *lowerer) lowerAll(nodes []*sitter.Node) []any {
	out := make([]any, 0, len(nodes))
	for _, c := range nodes {
		if node := l.lower(c); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func orNil(n *ast.Node) any {
	if n == nil {
		return nil
	}
	return n
}

// delimited returns a location with the opening and closing tokens set.
func (l *lowerer) delimited(n *sitter.Node) ast.Location {
	loc := ast.Loc(l.rangeOf(n))
	if open, closing := l.delimiters(n); open != nil {
		loc.Begin = l.rangeOf(open)
		loc.End = l.rangeOf(closing)
	}
	return loc
}

// delimiters returns the first and last anonymous tokens of n when they are a
// bracket pair.
func (l *lowerer) delimiters(n *sitter.Node) (*sitter.Node, *sitter.Node) {
	count := int(n.ChildCount())
	if count < 2 {
		return nil, nil
	}
	first := n.Child(0)
	var last *sitter.Node
	for i := count - 1; i > 0; i-- {
		c := n.Child(i)
		if c != nil && !skipped(c) {
			last = c
			break
		}
	}
	if first == nil || last == nil || first.IsNamed() || last.IsNamed() {
		return nil, nil
	}
	switch first.Type() + last.Type() {
	case "()", "[]", "{}", "doend":
		return first, last
	}
	return nil, nil
}

func hasInterpolation(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == "interpolation" {
			return true
		}
	}
	return false
}

// stringValue joins the literal content of a string-like node.
func (l *lowerer) stringValue(n *sitter.Node) string {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "string_content", "escape_sequence", "heredoc_content":
			b.WriteString(c.Content(l.text))
		case "string":
			b.WriteString(l.stringValue(c))
		}
	}
	return b.String()
}

func (l *lowerer) lowerHeredoc(n *sitter.Node) *ast.Node {
	rng := l.rangeOf(n)
	loc := ast.Loc(rng)
	body, ok := l.heredocs[rng.Begin]
	if !ok {
		return ast.New(l.src, ast.Str, loc, "")
	}

	bodyStart := offset(body.StartByte())
	bodyEnd := offset(body.EndByte())
	loc.Heredoc = ast.NewRange(bodyStart, bodyEnd)
	loc.HeredocEnd = ast.NewRange(bodyEnd, bodyEnd)
	for i := int(body.ChildCount()) - 1; i >= 0; i-- {
		c := body.Child(i)
		if c != nil && c.Type() == "heredoc_end" {
			loc.HeredocEnd = l.trimmed(c)
			break
		}
	}

	if hasInterpolation(body) {
		return ast.New(l.src, ast.Dstr, loc, l.lowerAll(l.namedChildren(body))...)
	}
	return ast.New(l.src, ast.Str, loc, l.stringValue(body))
}

// trimmed narrows n's range to its text without surrounding whitespace.
func (l *lowerer) trimmed(n *sitter.Node) ast.Range {
	begin, end := offset(n.StartByte()), offset(n.EndByte())
	for begin < end && isSpace(l.text[begin]) {
		begin++
	}
	for end > begin && isSpace(l.text[end-1]) {
		end--
	}
	return ast.NewRange(begin, end)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (l *lowerer) lowerScope(n *sitter.Node) *ast.Node {
	rng := l.rangeOf(n)
	name := n.ChildByFieldName("name")
	scope := n.ChildByFieldName("scope")

	var scopeNode *ast.Node
	if scope != nil {
		scopeNode = l.lower(scope)
	} else {
		begin := rng.Begin
		scopeNode = ast.New(l.src, ast.Cbase, ast.Loc(ast.NewRange(begin, begin+2)))
	}

	loc := ast.Loc(rng)
	if name == nil {
		return ast.New(l.src, ast.Const, loc, orNil(scopeNode), ast.Symbol(""))
	}
	loc.Selector = l.rangeOf(name)
	return ast.New(l.src, ast.Const, loc, orNil(scopeNode), ast.Symbol(name.Content(l.text)))
}

func (l *lowerer) lowerBinary(n *sitter.Node) *ast.Node {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	op := n.ChildByFieldName("operator")
	if left == nil || right == nil || op == nil {
		return l.generic(n, "binary")
	}
	opText := op.Content(l.text)
	switch opText {
	case "&&", "and":
		return ast.New(l.src, "and", ast.Loc(l.rangeOf(n)), orNil(l.lower(left)), orNil(l.lower(right)))
	case "||", "or":
		return ast.New(l.src, "or", ast.Loc(l.rangeOf(n)), orNil(l.lower(left)), orNil(l.lower(right)))
	}
	loc := ast.Loc(l.rangeOf(n))
	loc.Selector = l.rangeOf(op)
	return ast.New(l.src, ast.Send, loc, orNil(l.lower(left)), ast.Symbol(opText), orNil(l.lower(right)))
}

// callParts extracts the pieces of a method call across grammar versions.
func (l *lowerer) callParts(n *sitter.Node) (recv, method, args, block *sitter.Node) {
	recv = n.ChildByFieldName("receiver")
	method = n.ChildByFieldName("method")
	args = n.ChildByFieldName("arguments")
	block = n.ChildByFieldName("block")

	if method != nil && recv == nil && method.Type() == "call" {
		recv = method.ChildByFieldName("receiver")
		method = method.ChildByFieldName("method")
	}
	if args == nil || block == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c == nil {
				continue
			}
			switch c.Type() {
			case "argument_list":
				if args == nil {
					args = c
				}
			case "block", "do_block":
				if block == nil {
					block = c
				}
			}
		}
	}
	return recv, method, args, block
}

func (l *lowerer) lowerCall(n *sitter.Node) *ast.Node {
	recv, method, args, block := l.callParts(n)
	send := l.lowerSend(n, recv, method, args)
	if block == nil {
		return send
	}
	return l.lowerBlock(n, send, block)
}

func (l *lowerer) lowerSend(n, recv, method, args *sitter.Node) *ast.Node {
	start := offset(n.StartByte())
	end := start
	name := "call"

	loc := ast.Loc(ast.NoRange)
	if recv != nil {
		end = l.end(recv)
	}
	if method != nil {
		name = method.Content(l.text)
		loc.Selector = l.rangeOf(method)
		end = loc.Selector.End
	}

	var argNodes []*ast.Node
	if args != nil {
		if open, closing := l.delimiters(args); open != nil && open.Type() == "(" {
			loc.Begin = l.rangeOf(open)
			loc.End = l.rangeOf(closing)
		}
		argNodes = l.lowerArguments(args)
		if e := l.end(args); e > end {
			end = e
		}
	}
	loc.Expression = ast.NewRange(start, end)

	children := []any{nil, ast.Symbol(name)}
	if recv != nil {
		children[0] = orNil(l.lower(recv))
	}
	for _, a := range argNodes {
		children = append(children, a)
	}
	return ast.New(l.src, ast.Send, loc, children...)
}

// lowerArguments lowers an argument list, grouping trailing pairs into a
// brace-less hash.
func (l *lowerer) lowerArguments(args *sitter.Node) []*ast.Node {
	raw := l.namedChildren(args)

	pairsEnd := len(raw)
	if pairsEnd > 0 && raw[pairsEnd-1].Type() == "block_argument" {
		pairsEnd--
	}
	pairsStart := pairsEnd
	for pairsStart > 0 && isPairArg(raw[pairsStart-1]) {
		pairsStart--
	}

	var out []*ast.Node
	for _, c := range raw[:pairsStart] {
		if node := l.lower(c); node != nil {
			out = append(out, node)
		}
	}
	if pairsStart < pairsEnd {
		pairs := raw[pairsStart:pairsEnd]
		rng := l.span(pairs[0], pairs[len(pairs)-1])
		out = append(out, ast.New(l.src, ast.Hash, ast.Loc(rng), l.lowerAll(pairs)...))
	}
	for _, c := range raw[pairsEnd:] {
		if node := l.lower(c); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func isPairArg(n *sitter.Node) bool {
	return n.Type() == "pair" || n.Type() == "hash_splat_argument"
}

func (l *lowerer) lowerBlock(call *sitter.Node, send *ast.Node, block *sitter.Node) *ast.Node {
	loc := ast.Loc(ast.NewRange(offset(call.StartByte()), l.end(block)))
	if open, closing := l.delimiters(block); open != nil {
		loc.Begin = l.rangeOf(open)
		loc.End = l.rangeOf(closing)
	}

	params := block.ChildByFieldName("parameters")
	if params == nil {
		for i := 0; i < int(block.NamedChildCount()); i++ {
			if c := block.NamedChild(i); c != nil && c.Type() == "block_parameters" {
				params = c
				break
			}
		}
	}
	args := l.lowerParams(params)
	body := l.wrapStatements(l.statements(block))

	return ast.New(l.src, ast.Block, loc, send, args, orNil(body))
}

func (l *lowerer) lowerParams(params *sitter.Node) *ast.Node {
	if params == nil {
		return ast.New(l.src, ast.Args, ast.Loc(ast.NoRange))
	}
	var children []any
	for _, p := range l.namedChildren(params) {
		if p.Type() == "identifier" {
			children = append(children, ast.New(l.src, ast.Arg, ast.Loc(l.rangeOf(p)), ast.Symbol(p.Content(l.text))))
			continue
		}
		if node := l.generic(p, ast.Type(p.Type())); node != nil {
			children = append(children, node)
		}
	}
	return ast.New(l.src, ast.Args, ast.Loc(l.rangeOf(params)), children...)
}
