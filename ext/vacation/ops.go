package vacation

import (
	"github.com/migadu/sieve/registry"
)

var operations = []registry.Operation{
	{Mnemonic: "VACATION", Ext: "vacation", LocalCode: opVACATION, Exec: execVacation},
}

func execVacation(rt registry.RuntimeEnv) (registry.Signal, error) {
	ctx := VacationCtx{Days: defaultDays, Subject: defaultSubject}
	for {
		code, ok, err := rt.ReadOptBlock()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		switch code {
		case optSubject:
			ctx.Subject, err = rt.ReadString()
		case optFrom:
			ctx.From, err = rt.ReadString()
		case optHandle:
			ctx.Handle, err = rt.ReadString()
		case optDays:
			var n uint64
			n, err = rt.ReadPackedUint()
			ctx.Days = int64(n)
		case optMime:
			ctx.Mime = true
		case optAddrs:
			ctx.Addresses, err = rt.ReadStringList()
		}
		if err != nil {
			return 0, err
		}
	}
	reason, err := rt.ReadString()
	if err != nil {
		return 0, err
	}
	ctx.Reason = reason

	if err := rt.Actions().AddAction(Vacation{}, nil, rt.SourceLine(), ctx); err != nil {
		return 0, err
	}
	return registry.SigNext, nil
}
