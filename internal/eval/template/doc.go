// Package template provides a Handlebars template engine for rendering
// per-row string values from table columns.
//
// The engine supports Handlebars syntax with custom helpers for common operations.
// RenderRows renders one string per table row, with the row's column values
// as the template context:
//
//	// name = ["ada", "bob"]
//	values, err := engine.RenderRows("hello {{uppercase name}}", tbl)
//	// values = ["hello ADA", "hello BOB"]
//
// Render works on any context, which is useful for checking a template
// before it is used as a rule value:
//
//	engine := template.NewEngine()
//	result, err := engine.Render("{{uppercase size}}", map[string]interface{}{"size": "small"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// result = "SMALL"
//
// Built-in helpers:
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
// Example with helpers:
//
//	{{uppercase name}}                     # "JOHN"
//	{{lowercase email}}                    # "user@example.com"
//	{{default value "N/A"}}                # "N/A" if value is empty
//	{{#if (eq status "active")}}...{{/if}} # Conditional
//	{{#if (gt score 0.8)}}...{{/if}}       # Numeric comparison
//	{{join items ", "}}                    # "a, b, c"
package template
