package grading

import (
	"context"
	"encoding/json"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/pinchbench/pinchbench/internal/models"
)

// runLuaGrader executes task-supplied lua scoring code in a restricted
// interpreter and calls its grade(transcript, workspace) function. Only the
// base, table, string and math libraries are opened; file and process access
// is unavailable to the script.
func runLuaGrader(ctx context.Context, source string, transcript []models.TranscriptEvent, workspace string) (map[string]any, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// The base library leaks filesystem access through these.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("loading scoring code: %w", err)
	}

	fn := L.GetGlobal("grade")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("scoring code does not define a grade function")
	}

	transcriptLV, err := transcriptToLua(L, transcript)
	if err != nil {
		return nil, err
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, transcriptLV, lua.LString(workspace)); err != nil {
		return nil, fmt.Errorf("running grade function: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		// A non-table return grades as an empty mapping.
		return map[string]any{}, nil
	}

	scores := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LNumber:
			scores[string(key)] = float64(val)
		case lua.LBool:
			scores[string(key)] = bool(val)
		case lua.LString:
			scores[string(key)] = string(val)
		}
	})
	return scores, nil
}

// transcriptToLua converts transcript events to a lua array of tables,
// passing through their JSON representation.
func transcriptToLua(L *lua.LState, transcript []models.TranscriptEvent) (lua.LValue, error) {
	data, err := json.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	var generic []any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return toLValue(L, generic), nil
}

func toLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLValue(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLValue(L, item))
		}
		return tbl
	}
	return lua.LNil
}
