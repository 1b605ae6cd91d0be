package main

import "golang.org/x/text/cases"

// symbols maps caseless builtin spellings to their op codes; it is consulted
// only while loading, never while running.
type symbols struct {
	codes map[string]opCode
}

func (sym *symbols) define(code opCode, spellings ...string) {
	if sym.codes == nil {
		sym.codes = make(map[string]opCode)
	}
	for _, s := range spellings {
		sym.codes[fold(s)] = code
	}
}

func (sym symbols) lookup(token string) (opCode, bool) {
	code, defined := sym.codes[fold(token)]
	return code, defined
}

func (sym symbols) spellings(code opCode) (all []string) {
	for s, c := range sym.codes {
		if c == code {
			all = append(all, s)
		}
	}
	return all
}

// A cases.Caser carries state, so each call gets its own.
func fold(s string) string { return cases.Fold().String(s) }

var builtins symbols

func init() {
	builtins.define(vmCodeAdd, "+")
	builtins.define(vmCodeSub, "-")
	builtins.define(vmCodeMul, "*")
	builtins.define(vmCodeDiv, "/")
	builtins.define(vmCodeMod, "%")
	builtins.define(vmCodeEq, "=", "==")
	builtins.define(vmCodeNe, "!=")
	builtins.define(vmCodeLt, "<")
	builtins.define(vmCodeGt, ">")
	for code := vmCodeSeq; code < vmCodeMax; code++ {
		builtins.define(code, vmCodeNames[code])
	}
}
