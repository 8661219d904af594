package compiler

import "fmt"

// CompileExpr lowers an expression tree into assembly lines that leave
// the value in register target, using only temporaries it allocates
// itself. Rules, straight from the component design:
//
//   - var(n): MOV Rtarget, Rsrc if the bound register differs from
//     target, otherwise nothing.
//   - const(k): LOADK Rtarget, k.
//   - binop(op, L, R): compile L into target; if R is a constant, emit
//     the immediate form directly against target; otherwise allocate a
//     fresh temp, compile R into it, and emit the register form.
func CompileExpr(ctx *CompileContext, e *Expr, target int) ([]string, error) {
	switch e.Kind {
	case ExprVar:
		src := ctx.regFor(e.Name)
		if src == target {
			return nil, nil
		}
		return []string{fmt.Sprintf("MOV R%d, R%d", target, src)}, nil

	case ExprConst:
		return []string{fmt.Sprintf("LOADK R%d, %d", target, e.Value)}, nil

	case ExprBinop:
		return lowerBinop(ctx, e, target)

	default:
		return nil, fmt.Errorf("compiler: unknown expression kind %d", e.Kind)
	}
}

func lowerBinop(ctx *CompileContext, e *Expr, target int) ([]string, error) {
	lines, err := CompileExpr(ctx, e.Left, target)
	if err != nil {
		return nil, err
	}

	if e.Right.Kind == ExprConst {
		mnemonic, err := e.Op.immMnemonic()
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%s R%d, %d", mnemonic, target, e.Right.Value))
		return lines, nil
	}

	temp, err := ctx.allocTemp()
	if err != nil {
		return nil, err
	}
	rhs, err := CompileExpr(ctx, e.Right, temp)
	if err != nil {
		return nil, err
	}
	lines = append(lines, rhs...)

	mnemonic, err := e.Op.regMnemonic()
	if err != nil {
		return nil, err
	}
	lines = append(lines, fmt.Sprintf("%s R%d, R%d", mnemonic, target, temp))
	return lines, nil
}

// DeclareVar binds name to its dense register index (first-seen order)
// and resets the temp counter, matching "the temp counter resets at the
// start of every declaration/assignment" and "first use of any variable
// name appends it to the symbol table at the next free register index."
func DeclareVar(ctx *CompileContext, name string) int {
	ctx.ResetStatement()
	return ctx.regFor(name)
}
