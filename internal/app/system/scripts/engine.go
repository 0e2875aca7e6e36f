// internal/app/system/scripts/engine.go

// Package scripts executes stored Starlark scripts against a user's
// attribute snapshot. A script defines run(input) where input is a dict
// of the user's current attribute values; the returned dict is written
// back as bot-observed attribute snapshots.
package scripts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"
)

const (
	maxExecutionSteps = uint64(100_000)
	evalTimeout       = 2 * time.Second
	maxSourceBytes    = 256 * 1024
	entryFunction     = "run"
)

// Source loads a script's body by ID.
type Source interface {
	SourceByID(ctx context.Context, id string) (models.Script, error)
}

// AttributeSink records one attribute snapshot for a user.
type AttributeSink interface {
	Record(ctx context.Context, userID, attributeID string, value interface{}, observer models.Observer, msg models.MessageRef) error
}

// SnapshotSource reads a user's current attribute values.
type SnapshotSource interface {
	CurrentValues(ctx context.Context, userID string) (map[string]interface{}, error)
}

// Engine runs scripts in a sandbox. The interpreter has no filesystem,
// network, or load() access; runaway scripts are cut off by step and
// wall-clock limits.
type Engine struct {
	source    Source
	attrs     AttributeSink
	snapshots SnapshotSource
	log       *zap.Logger
}

func NewEngine(source Source, attrs AttributeSink, snapshots SnapshotSource, logger *zap.Logger) *Engine {
	return &Engine{source: source, attrs: attrs, snapshots: snapshots, log: logger}
}

// Run executes the script for the user and persists every attribute in
// the returned dict. It returns the computed attribute values.
func (e *Engine) Run(ctx context.Context, scriptID, userID string) (map[string]interface{}, error) {
	script, err := e.source.SourceByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	if len(script.Source) > maxSourceBytes {
		return nil, fmt.Errorf("script %s exceeds %d bytes", scriptID, maxSourceBytes)
	}

	input, err := e.snapshots.CurrentValues(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load attribute snapshot: %w", err)
	}

	results, err := e.eval(script.Source, input)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", scriptID, err)
	}

	msg := models.MessageRef{In: models.InScript, ID: scriptID}
	attrIDs := make([]string, 0, len(results))
	for id := range results {
		attrIDs = append(attrIDs, id)
	}
	sort.Strings(attrIDs)
	for _, id := range attrIDs {
		if err := e.attrs.Record(ctx, userID, id, results[id], models.ObserverBot, msg); err != nil {
			return nil, fmt.Errorf("record script attribute %s: %w", id, err)
		}
	}

	e.log.Debug("script run",
		zap.String("script", scriptID),
		zap.String("user", userID),
		zap.Int("attributes_written", len(results)))
	return results, nil
}

func (e *Engine) eval(source string, input map[string]interface{}) (map[string]interface{}, error) {
	thread := &starlark.Thread{Name: "script-run"}
	thread.SetMaxExecutionSteps(maxExecutionSteps)

	var globals starlark.StringDict
	if err := withTimeout(thread, evalTimeout, func() error {
		loaded, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, "script.star", source, nil)
		if err != nil {
			return err
		}
		globals = loaded
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	entry, ok := globals[entryFunction]
	if !ok {
		return nil, fmt.Errorf("script does not define %s(input)", entryFunction)
	}

	arg, err := toStarlark(input)
	if err != nil {
		return nil, fmt.Errorf("build input: %w", err)
	}

	var result starlark.Value
	if err := withTimeout(thread, evalTimeout, func() error {
		out, err := starlark.Call(thread, entry, starlark.Tuple{arg}, nil)
		if err != nil {
			return err
		}
		result = out
		return nil
	}); err != nil {
		return nil, err
	}

	dict, ok := result.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%s must return a dict of attribute values, got %s", entryFunction, result.Type())
	}

	results := make(map[string]interface{}, dict.Len())
	for _, item := range dict.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("attribute key must be a string, got %s", item[0].Type())
		}
		value, err := fromStarlark(item[1])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		results[key] = value
	}
	return results, nil
}

func withTimeout(thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		thread.Cancel("execution timed out")
		<-done
		return fmt.Errorf("execution timed out after %s", timeout)
	}
}

func toStarlark(v interface{}) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int32:
		return starlark.MakeInt(int(x)), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case []interface{}:
		elems := make([]starlark.Value, len(x))
		for i, e := range x {
			sv, err := toStarlark(e)
			if err != nil {
				return nil, err
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sv, err := toStarlark(x[k])
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func fromStarlark(v starlark.Value) (interface{}, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		i, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("integer out of range")
		}
		return i, nil
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		out := make([]interface{}, 0, x.Len())
		for i := 0; i < x.Len(); i++ {
			e, err := fromStarlark(x.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict key must be a string, got %s", item[0].Type())
			}
			val, err := fromStarlark(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported result type %s", v.Type())
	}
}
