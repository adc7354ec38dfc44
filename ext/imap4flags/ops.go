package imap4flags

import (
	"github.com/migadu/sieve/match"
	"github.com/migadu/sieve/registry"
)

var comparators = match.Comparators()

var operations = []registry.Operation{
	{Mnemonic: "SETFLAG", Ext: "imap4flags", LocalCode: opSETFLAG, Exec: execSetflag},
	{Mnemonic: "ADDFLAG", Ext: "imap4flags", LocalCode: opADDFLAG, Exec: execAddflag},
	{Mnemonic: "REMOVEFLAG", Ext: "imap4flags", LocalCode: opREMOVEFLAG, Exec: execRemoveflag},
	{Mnemonic: "HASFLAG", Ext: "imap4flags", LocalCode: opHASFLAG, Exec: execHasflag},
}

// currentFlags returns the flag names currently held in ext-state,
// stripping the registry.SideEffect wrapper.
func currentFlags(rt registry.RuntimeEnv) []string {
	v := rt.ExtState("imap4flags")
	se, _ := v.([]registry.SideEffect)
	if se == nil {
		return nil
	}
	out := make([]string, len(se))
	for i, s := range se {
		out[i] = s.Name()
	}
	return out
}

func storeFlags(rt registry.RuntimeEnv, flags []string) {
	se := make([]registry.SideEffect, len(flags))
	for i, f := range flags {
		se[i] = Flag(f)
	}
	rt.SetExtState("imap4flags", se)
}

func execSetflag(rt registry.RuntimeEnv) (registry.Signal, error) {
	flags, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	storeFlags(rt, flags)
	return registry.SigNext, nil
}

func execAddflag(rt registry.RuntimeEnv) (registry.Signal, error) {
	flags, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	have := currentFlags(rt)
	for _, f := range flags {
		found := false
		for _, h := range have {
			if h == f {
				found = true
				break
			}
		}
		if !found {
			have = append(have, f)
		}
	}
	storeFlags(rt, have)
	return registry.SigNext, nil
}

func execRemoveflag(rt registry.RuntimeEnv) (registry.Signal, error) {
	flags, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	have := currentFlags(rt)
	var kept []string
	for _, h := range have {
		remove := false
		for _, f := range flags {
			if h == f {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, h)
		}
	}
	storeFlags(rt, kept)
	return registry.SigNext, nil
}

func execHasflag(rt registry.RuntimeEnv) (registry.Signal, error) {
	cmp := comparators[match.DefaultComparator]
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if code == optComparator {
			name, err := rt.ReadString()
			if err != nil {
				return 0, err
			}
			if c, ok := comparators[name]; ok {
				cmp = c
			}
		}
	}
	keys, err := rt.ReadStringList()
	if err != nil {
		return 0, err
	}
	have := currentFlags(rt)
	matched := false
	for _, h := range have {
		for _, k := range keys {
			if cmp.Equals(h, k) {
				matched = true
			}
		}
	}
	rt.SetTestRegister(matched)
	return registry.SigNext, nil
}
