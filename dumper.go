package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type vmDumper struct {
	vm  *VM
	out io.Writer
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  ip: %v\n", dump.vm.ip)
	dump.dumpProg()
	dump.dumpLabels()
	dump.dumpStacks()
	dump.dumpVars()
}

// snapshot is the per-step debug dump: the instruction just run, the stacks,
// and the variables.
func (dump vmDumper) snapshot(at int, in instr) {
	fmt.Fprintf(dump.out, "@%v %v -> ip:%v rets:%v\n", at, in, dump.vm.ip, dump.vm.rets.Values())
	dump.dumpStacks()
	dump.dumpVars()
}

func (dump vmDumper) dumpProg() {
	var sb strings.Builder
	for i, in := range dump.vm.prog {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i == dump.vm.ip {
			sb.WriteString(">")
		}
		sb.WriteString(in.String())
	}
	fmt.Fprintf(dump.out, "  prog: [%v]\n", sb.String())
}

func (dump vmDumper) dumpLabels() {
	if len(dump.vm.labels) == 0 {
		return
	}
	t := dump.newTable()
	t.AppendHeader(table.Row{"Label", "@"})
	for _, name := range sortedNames(dump.vm.labels) {
		t.AppendRow(table.Row{name, dump.vm.labels[name]})
	}
	t.Render()
}

func (dump vmDumper) dumpStacks() {
	values, texts := dump.vm.values.Values(), dump.vm.texts.Values()

	t := dump.newTable()
	t.AppendHeader(table.Row{
		"#",
		fmt.Sprintf("values %v%v", dump.vm.values.mode(), underflowMark(&dump.vm.values)),
		fmt.Sprintf("texts %v%v", dump.vm.texts.mode(), underflowMark(&dump.vm.texts)),
	})
	for i := 0; i < len(values) || i < len(texts); i++ {
		row := table.Row{i, "", ""}
		if i < len(values) {
			row[1] = values[i].GoString()
		}
		if i < len(texts) {
			row[2] = texts[i].GoString()
		}
		t.AppendRow(row)
	}
	t.Render()
}

func (dump vmDumper) dumpVars() {
	t := dump.newTable()
	t.AppendHeader(table.Row{"Variable", "Scope", "Value"})
	for _, name := range sortedNames(dump.vm.env.system) {
		t.AppendRow(table.Row{name, "system", dump.vm.env.system[name].GoString()})
	}
	for _, name := range sortedNames(dump.vm.env.user) {
		t.AppendRow(table.Row{name, "user", dump.vm.env.user[name].GoString()})
	}
	t.Render()
}

func (dump vmDumper) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(dump.out)
	t.SetStyle(table.StyleLight)
	return t
}

func underflowMark(s *Stack) string {
	if s.Underflow() {
		return " UNDERFLOW"
	}
	return ""
}

// snapshot writes a debug snapshot to the debug output, if any, or else to
// the standard output.
func (vm *VM) snapshot(at int, in instr) {
	if vm.debugOut != nil {
		vmDumper{vm: vm, out: vm.debugOut}.snapshot(at, in)
		return
	}
	if vm.out != nil {
		vmDumper{vm: vm, out: vm.out}.snapshot(at, in)
		if err := vm.out.Flush(); err != nil {
			vm.logf("!", "debug flush: %v", err)
		}
	}
}
