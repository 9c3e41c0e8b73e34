// Package plugins ships ready-to-import native plugins:
//
//	k := kernel.New()
//	_ = k.ImportPlugin(plugins.NewMathPlugin())
//	res, _ := k.RunRef(ctx, "Math.add", core.VariablesFromMap(map[string]any{"a": 5, "b": 3}))
//	fmt.Println(res.Output) // 8
//
// Math and Text are pure. Memory reaches the host's MemoryStore through the
// reserved "kernel" parameter.
package plugins
