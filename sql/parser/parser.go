// Package parser implements the recursive-descent SQL parser described in
// §4.10: statement dispatch on the first significant token, and an
// expression grammar descending OR -> AND -> comparison -> additive ->
// multiplicative -> unary -> primary.
package parser

import (
	"strconv"
	"strings"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/sql/lexer"
	"github.com/lyradb/lyradb/value"
)

var aggregateNames = map[string]bool{"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true}

// Parser consumes a token stream produced by sql/lexer and builds an AST.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses src into a single ast.Statement.
func Parse(src string) (ast.Statement, error) {
	toks, err := lexer.New(src).All()
	if err != nil {
		return nil, err
	}

	p := &Parser{toks: toks}

	return p.parseStatement()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return t
}

func (p *Parser) errAt(tok lexer.Token, msg string) error {
	return &errs.ParseError{Line: tok.Line, Col: tok.Col, Token: tok.Text, Message: msg}
}

// isKeyword reports whether the current token is the given keyword
// (already uppercased by the lexer).
func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()

	return t.Kind == lexer.Keyword && t.Text == kw
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errAt(p.cur(), "expected "+kw)
	}
	p.advance()

	return nil
}

func (p *Parser) isPunct(s string) bool {
	t := p.cur()

	return t.Kind == lexer.Punct && t.Text == s
}

func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.errAt(p.cur(), "expected "+s)
	}
	p.advance()

	return nil
}

func (p *Parser) isOperator(s string) bool {
	t := p.cur()

	return t.Kind == lexer.Operator && t.Text == s
}

func (p *Parser) expectIdent() (string, error) {
	t := p.cur()
	if t.Kind != lexer.Ident {
		return "", p.errAt(t, "expected identifier")
	}
	p.advance()

	return t.Text, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	t := p.cur()
	if t.Kind != lexer.Keyword {
		return nil, p.errAt(t, "expected statement keyword")
	}

	switch t.Text {
	case "CREATE":
		return p.parseCreate()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "DROP":
		return p.parseDrop()
	case "SELECT":
		return p.parseSelect()
	default:
		return nil, p.errAt(t, "unsupported statement")
	}
}

func (p *Parser) parseCreate() (ast.Statement, error) {
	p.advance() // CREATE

	switch {
	case p.isKeyword("TABLE"):
		return p.parseCreateTable()
	case p.isKeyword("INDEX"):
		return p.parseCreateIndex()
	default:
		return nil, p.errAt(p.cur(), "expected TABLE or INDEX")
	}
}

func (p *Parser) parseCreateTable() (ast.Statement, error) {
	p.advance() // TABLE

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var cols []ast.ColumnDef
	for {
		colName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		nullable := true
		if p.isKeyword("NOT") {
			p.advance()
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			nullable = false
		}
		cols = append(cols, ast.ColumnDef{Name: colName, Type: strings.ToLower(typName), Nullable: nullable})

		if p.isPunct(",") {
			p.advance()

			continue
		}

		break
	}

	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	return &ast.CreateTable{Table: name, Columns: cols}, nil
}

func (p *Parser) parseCreateIndex() (ast.Statement, error) {
	p.advance() // INDEX

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var cols []string
	for {
		c, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
		if p.isPunct(",") {
			p.advance()

			continue
		}

		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	kind := ast.IndexAuto
	if p.cur().Kind == lexer.Ident && strings.EqualFold(p.cur().Text, "USING") {
		p.advance()
	}
	if p.isKeyword("BTREE") {
		p.advance()
		kind = ast.IndexBTree
	} else if p.isKeyword("HASH") {
		p.advance()
		kind = ast.IndexHash
	} else if p.isKeyword("BITMAP") {
		p.advance()
		kind = ast.IndexBitmap
	}

	return &ast.CreateIndex{Name: name, Table: table, Columns: cols, Kind: kind}, nil
}

func (p *Parser) parseInsert() (ast.Statement, error) {
	p.advance() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}

	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var cols []string
	if p.isPunct("(") {
		p.advance()
		for {
			c, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
			if p.isPunct(",") {
				p.advance()

				continue
			}

			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var values []ast.Expr
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.isPunct(",") {
			p.advance()

			continue
		}

		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	return &ast.Insert{Table: table, Columns: cols, Values: values}, nil
}

func (p *Parser) parseUpdate() (ast.Statement, error) {
	p.advance() // UPDATE

	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	var assigns []ast.Assignment
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if !p.isOperator("=") {
			return nil, p.errAt(p.cur(), "expected =")
		}
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, ast.Assignment{Column: col, Value: v})
		if p.isPunct(",") {
			p.advance()

			continue
		}

		break
	}

	var where ast.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	return &ast.Update{Table: table, Assignments: assigns, Where: where}, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	p.advance() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var where ast.Expr
	if p.isKeyword("WHERE") {
		p.advance()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	return &ast.Delete{Table: table, Where: where}, nil
}

func (p *Parser) parseDrop() (ast.Statement, error) {
	p.advance() // DROP

	switch {
	case p.isKeyword("TABLE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		return &ast.DropTable{Table: name}, nil
	case p.isKeyword("INDEX"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		return &ast.DropIndex{Name: name}, nil
	default:
		return nil, p.errAt(p.cur(), "expected TABLE or INDEX")
	}
}

func (p *Parser) parseSelect() (ast.Statement, error) {
	p.advance() // SELECT

	sel := &ast.Select{}

	if p.isKeyword("DISTINCT") {
		p.advance()
		sel.Distinct = true
	}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		sel.Columns = append(sel.Columns, item)
		if p.isPunct(",") {
			p.advance()

			continue
		}

		break
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	sel.From = from

	for p.isJoinStart() {
		j, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		sel.Joins = append(sel.Joins, j)
	}

	if p.isKeyword("WHERE") {
		p.advance()
		sel.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
			if p.isPunct(",") {
				p.advance()

				continue
			}

			break
		}
	}

	if p.isKeyword("HAVING") {
		p.advance()
		sel.Having, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			dir := ast.Asc
			if p.isKeyword("ASC") {
				p.advance()
			} else if p.isKeyword("DESC") {
				p.advance()
				dir = ast.Desc
			}
			sel.OrderBy = append(sel.OrderBy, ast.OrderKey{Expr: e, Direction: dir})
			if p.isPunct(",") {
				p.advance()

				continue
			}

			break
		}
	}

	if p.isKeyword("LIMIT") {
		p.advance()
		n, err := p.expectIntLiteral()
		if err != nil {
			return nil, err
		}
		sel.Limit = n
		sel.HasLimit = true

		if p.isKeyword("OFFSET") {
			p.advance()
			m, err := p.expectIntLiteral()
			if err != nil {
				return nil, err
			}
			sel.Offset = m
			sel.HasOffset = true
		}
	}

	return sel, nil
}

func (p *Parser) expectIntLiteral() (int64, error) {
	t := p.cur()
	if t.Kind != lexer.Int {
		return 0, p.errAt(t, "expected integer literal")
	}
	p.advance()
	n, err := strconv.ParseInt(t.Text, 10, 64)
	if err != nil {
		return 0, &errs.ParseError{Line: t.Line, Col: t.Col, Token: t.Text, Message: "invalid integer literal"}
	}

	return n, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.isOperator("*") {
		p.advance()

		return ast.SelectItem{Expr: &ast.StarExpr{}}, nil
	}

	e, err := p.parseExpr()
	if err != nil {
		return ast.SelectItem{}, err
	}

	alias := ""
	if p.isKeyword("AS") {
		p.advance()
		alias, err = p.expectIdent()
		if err != nil {
			return ast.SelectItem{}, err
		}
	} else if p.cur().Kind == lexer.Ident {
		alias, err = p.expectIdent()
		if err != nil {
			return ast.SelectItem{}, err
		}
	}

	return ast.SelectItem{Expr: e, Alias: alias}, nil
}

func (p *Parser) parseTableRef() (ast.TableRef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ast.TableRef{}, err
	}

	alias := ""
	if p.isKeyword("AS") {
		p.advance()
		alias, err = p.expectIdent()
		if err != nil {
			return ast.TableRef{}, err
		}
	} else if p.cur().Kind == lexer.Ident {
		alias, err = p.expectIdent()
		if err != nil {
			return ast.TableRef{}, err
		}
	}

	return ast.TableRef{Table: name, Alias: alias}, nil
}

func (p *Parser) isJoinStart() bool {
	return p.isKeyword("JOIN") || p.isKeyword("INNER") || p.isKeyword("LEFT") ||
		p.isKeyword("RIGHT") || p.isKeyword("FULL")
}

func (p *Parser) parseJoin() (ast.Join, error) {
	kind := ast.JoinInner
	switch {
	case p.isKeyword("INNER"):
		p.advance()
	case p.isKeyword("LEFT"):
		p.advance()
		kind = ast.JoinLeft
	case p.isKeyword("RIGHT"):
		p.advance()
		kind = ast.JoinRight
	case p.isKeyword("FULL"):
		p.advance()
		kind = ast.JoinFull
	}

	if err := p.expectKeyword("JOIN"); err != nil {
		return ast.Join{}, err
	}

	right, err := p.parseTableRef()
	if err != nil {
		return ast.Join{}, err
	}

	if err := p.expectKeyword("ON"); err != nil {
		return ast.Join{}, err
	}

	on, err := p.parseExpr()
	if err != nil {
		return ast.Join{}, err
	}

	return ast.Join{Kind: kind, Right: right, On: on}, nil
}

// parseExpr is the entry point to the expression grammar, starting at the
// lowest-precedence OR level (§4.10).
func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "OR", Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "AND", Left: left, Right: right}
	}

	return left, nil
}

var comparisonOps = map[string]bool{"=": true, "<>": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if p.cur().Kind == lexer.Operator && comparisonOps[p.cur().Text] {
		op := p.advance().Text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		return &ast.BinaryOp{Op: op, Left: left, Right: right}, nil
	}

	if p.isKeyword("LIKE") {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		return &ast.BinaryOp{Op: "LIKE", Left: left, Right: right}, nil
	}

	if p.isKeyword("IN") {
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var list []ast.Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list = append(list, e)
			if p.isPunct(",") {
				p.advance()

				continue
			}

			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}

		return &ast.InExpr{Expr: left, List: list}, nil
	}

	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOperator("+") || p.isOperator("-") {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOperator("*") || p.isOperator("/") || p.isOperator("%") {
		op := p.advance().Text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &ast.UnaryOp{Op: "NOT", Operand: operand}, nil
	}
	if p.isOperator("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &ast.UnaryOp{Op: "-", Operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()

	switch t.Kind {
	case lexer.Int:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, &errs.ParseError{Line: t.Line, Col: t.Col, Token: t.Text, Message: "invalid integer literal"}
		}

		return &ast.Literal{Value: value.Int(n)}, nil
	case lexer.Float:
		p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &errs.ParseError{Line: t.Line, Col: t.Col, Token: t.Text, Message: "invalid float literal"}
		}

		return &ast.Literal{Value: value.Float(f)}, nil
	case lexer.String:
		p.advance()

		return &ast.Literal{Value: value.Str(t.Text)}, nil
	case lexer.Keyword:
		switch t.Text {
		case "TRUE":
			p.advance()

			return &ast.Literal{Value: value.Bool(true)}, nil
		case "FALSE":
			p.advance()

			return &ast.Literal{Value: value.Bool(false)}, nil
		case "NULL":
			p.advance()

			return &ast.Literal{Value: value.Null()}, nil
		default:
			return nil, p.errAt(t, "unexpected keyword in expression")
		}
	case lexer.Ident:
		return p.parseIdentOrCall()
	case lexer.Punct:
		if t.Text == "(" {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}

			return e, nil
		}

		return nil, p.errAt(t, "unexpected token in expression")
	default:
		return nil, p.errAt(t, "unexpected token in expression")
	}
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if p.isPunct("(") {
		p.advance()

		call := &ast.FuncCall{Name: strings.ToUpper(name), IsAggregate: aggregateNames[strings.ToUpper(name)]}

		if p.isOperator("*") {
			p.advance()
			call.IsStarArg = true
		} else if !p.isPunct(")") {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if p.isPunct(",") {
					p.advance()

					continue
				}

				break
			}
		}

		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}

		return call, nil
	}

	if p.isPunct(".") {
		p.advance()
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		return &ast.ColumnRef{Table: name, Column: col}, nil
	}

	return &ast.ColumnRef{Column: name}, nil
}
