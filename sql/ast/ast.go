// Package ast defines the abstract syntax tree produced by sql/parser
// (§4.10): statements, the SELECT clause set, and the expression grammar
// (OR/AND/comparison/additive/multiplicative/unary/primary).
package ast

import "github.com/lyradb/lyradb/value"

// Statement is any top-level SQL statement.
type Statement interface{ stmt() }

// Expr is any node in the expression grammar.
type Expr interface{ expr() }

// JoinKind names one of the four join variants §4.10 supports.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
)

// SortDirection is ASC or DESC for one ORDER BY key.
type SortDirection uint8

const (
	Asc SortDirection = iota
	Desc
)

// ColumnDef is one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// CreateTable is `CREATE TABLE name (col type, ...)`.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (*CreateTable) stmt() {}

// IndexKind names the CREATE INDEX ... USING clause. IndexAuto is the zero
// value, produced when USING is omitted, so the coordinator can tell
// "the user asked for no particular structure" apart from "the user asked
// for BTREE" and consult index.Recommend instead of defaulting silently.
type IndexKind uint8

const (
	IndexAuto IndexKind = iota
	IndexBTree
	IndexHash
	IndexBitmap
)

// CreateIndex is `CREATE INDEX name ON table (col, ...) [USING kind]`.
type CreateIndex struct {
	Name    string
	Table   string
	Columns []string
	Kind    IndexKind
}

func (*CreateIndex) stmt() {}

// DropTable is `DROP TABLE name`.
type DropTable struct{ Table string }

func (*DropTable) stmt() {}

// DropIndex is `DROP INDEX name`.
type DropIndex struct{ Name string }

func (*DropIndex) stmt() {}

// Insert is `INSERT INTO table [(cols)] VALUES (v, ...)`.
type Insert struct {
	Table   string
	Columns []string // empty means "all columns, in schema order"
	Values  []Expr
}

func (*Insert) stmt() {}

// Assignment is one `col = expr` pair in an UPDATE's SET clause.
type Assignment struct {
	Column string
	Value  Expr
}

// Update is `UPDATE table SET col=v, ... [WHERE pred]`.
type Update struct {
	Table       string
	Assignments []Assignment
	Where       Expr // nil means unconditional
}

func (*Update) stmt() {}

// Delete is `DELETE FROM table [WHERE pred]`.
type Delete struct {
	Table string
	Where Expr
}

func (*Delete) stmt() {}

// TableRef is one FROM/JOIN source: a table name plus optional alias.
type TableRef struct {
	Table string
	Alias string
}

// Join is one JOIN clause chained onto the FROM source.
type Join struct {
	Kind  JoinKind
	Right TableRef
	On    Expr
}

// OrderKey is one ORDER BY key plus its direction.
type OrderKey struct {
	Expr      Expr
	Direction SortDirection
}

// Select is a full SELECT statement (§4.10).
type Select struct {
	Distinct  bool
	Columns   []SelectItem
	From      TableRef
	Joins     []Join
	Where     Expr
	GroupBy   []Expr
	Having    Expr
	OrderBy   []OrderKey
	Limit     int64
	HasLimit  bool
	Offset    int64
	HasOffset bool
}

func (*Select) stmt() {}

// SelectItem is one projected expression, with an optional alias.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// StarExpr is the `*` projection marker (§4.9a: expanded by the planner,
// not the parser).
type StarExpr struct{}

func (*StarExpr) expr() {}

// Literal is a constant value appearing in the expression grammar.
type Literal struct{ Value value.Value }

func (*Literal) expr() {}

// ColumnRef is a column reference, optionally qualified by a table alias
// (e.g. `e.emp_id`).
type ColumnRef struct {
	Table  string // empty if unqualified
	Column string
}

func (*ColumnRef) expr() {}

// BinaryOp covers every binary operator in §4.10's grammar: OR, AND,
// comparison (= <> != < > <= >= LIKE), additive (+ -), multiplicative
// (* / %). IN is parsed as an InExpr instead.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryOp) expr() {}

// UnaryOp covers NOT and unary minus.
type UnaryOp struct {
	Op      string
	Operand Expr
}

func (*UnaryOp) expr() {}

// InExpr is `expr IN (v1, v2, ...)`.
type InExpr struct {
	Expr Expr
	List []Expr
}

func (*InExpr) expr() {}

// FuncCall is a scalar function or aggregate call; IsAggregate is set by
// the parser for the recognized aggregate names (COUNT, SUM, AVG, MIN, MAX).
type FuncCall struct {
	Name        string
	Args        []Expr
	IsAggregate bool
	IsStarArg   bool // true for COUNT(*)
}

func (*FuncCall) expr() {}
