package template

import (
	"fmt"

	"github.com/aescanero/dago-node-render/internal/repeat"
	"github.com/aymerick/raymond/ast"
	"github.com/aymerick/raymond/parser"
)

// checkCallSites parses source and verifies that every repeat call site opens
// a block with a count argument. Argument values are only known at render
// time and are checked by the helper itself.
func checkCallSites(source string) error {
	program, err := parser.Parse(source)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return walkProgram(program)
}

func walkProgram(program *ast.Program) error {
	if program == nil {
		return nil
	}
	for _, node := range program.Body {
		if err := walkNode(node); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(node ast.Node) error {
	switch n := node.(type) {
	case *ast.MustacheStatement:
		return walkExpression(n.Expression, false)
	case *ast.BlockStatement:
		if err := walkExpression(n.Expression, true); err != nil {
			return err
		}
		if err := walkProgram(n.Program); err != nil {
			return err
		}
		return walkProgram(n.Inverse)
	case *ast.SubExpression:
		return walkExpression(n.Expression, false)
	}
	return nil
}

func walkExpression(expr *ast.Expression, block bool) error {
	if expr == nil {
		return nil
	}

	if expr.HelperName() == repeat.Name {
		if len(expr.Params) == 0 {
			return &repeat.Error{Err: repeat.ErrArgumentMissing, Helper: repeat.Name, Position: 0}
		}
		if !block {
			return &repeat.Error{Err: repeat.ErrBlockBodyRequired, Helper: repeat.Name}
		}
	}

	for _, param := range expr.Params {
		if err := walkNode(param); err != nil {
			return err
		}
	}
	if expr.Hash != nil {
		for _, pair := range expr.Hash.Pairs {
			if err := walkNode(pair.Val); err != nil {
				return err
			}
		}
	}
	return nil
}
