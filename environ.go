package main

import (
	"sort"
	"time"
)

// Reserved system variable names; their values have engine-visible effects.
const (
	sysDelay = "delay" // wait duration, in milliseconds
	sysObj   = "obj"   // current I/O object name
	sysEOF   = "eof"   // 1 after a read found no more input
)

const defaultDelay = time.Second

// environ holds two name->Value mappings: reserved system slots, which can be
// updated but never shadowed or removed, and user bindings.
type environ struct {
	defaults map[string]Value
	system   map[string]Value
	user     map[string]Value
}

func (env *environ) init() {
	if env.defaults == nil {
		env.defaults = map[string]Value{
			sysDelay: Int(defaultDelay.Milliseconds()),
			sysObj:   Text(stdObject),
			sysEOF:   Int(0),
		}
	}
	if env.system == nil {
		env.reset()
	}
}

// reset restores every system slot to its default and drops all user
// bindings.
func (env *environ) reset() {
	env.system = make(map[string]Value, len(env.defaults))
	for name, val := range env.defaults {
		env.system[name] = val
	}
	env.user = make(map[string]Value)
}

func (env *environ) setDefault(name string, val Value) {
	env.init()
	env.defaults[name] = val
	env.system[name] = val
}

func (env *environ) set(name string, val Value) {
	if _, reserved := env.system[name]; reserved {
		env.system[name] = val
		return
	}
	env.user[name] = val
}

func (env *environ) unset(name string) bool {
	if _, defined := env.user[name]; defined {
		delete(env.user, name)
		return true
	}
	return false
}

func (env *environ) get(name string) (Value, bool) {
	if val, defined := env.system[name]; defined {
		return val, true
	}
	val, defined := env.user[name]
	return val, defined
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
