// Package template provides a Handlebars template engine built on raymond.
//
// The engine supports Handlebars syntax with custom helpers for common
// operations, the most important of which is the repeat block helper.
//
// Example usage:
//
//	engine := template.NewEngine(template.WithLogger(logger))
//
//	data := map[string]interface{}{"name": "foo", "count": 2}
//
//	tmpl := "{{#repeat count}}{{name}}:{{@index}} {{else}}none{{/repeat}}"
//	result, err := engine.Render(ctx, tmpl, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: foo:0 foo:1
//
// Inside a repeat block @index, @first and @last describe the current
// iteration; the {{else}} section renders only when count is zero. Call sites
// are checked when a template is compiled: a repeat without a count argument,
// or used outside a block, is rejected before anything is rendered.
//
// Built-in helpers:
//   - repeat - Render a block count times
//   - uppercase - Convert string to uppercase
//   - lowercase - Convert string to lowercase
//   - trim - Trim whitespace from string
//   - default - Return default value if first arg is empty
//   - eq - Equality comparison
//   - ne - Inequality comparison
//   - gt - Greater than (for numbers)
//   - lt - Less than (for numbers)
//   - contains - Check if string contains substring
//   - join - Join array elements with separator
//   - len - Get length of array/string/map
//
// Helpers are attached to each compiled template, so several engines can live
// in the same process.
package template
