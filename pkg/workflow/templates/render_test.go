package templates

import "testing"

func testContext() TemplateContext {
	return TemplateContext{
		"patient": map[string]interface{}{
			"first_name": "Amal",
			"last_name":  "Haddad",
			"email":      "amal@example.com",
		},
		"deal": map[string]interface{}{},
	}
}

func TestRender(t *testing.T) {
	t.Run("simple substitution", func(t *testing.T) {
		got := Render("Hi {{patient.first_name}}!", testContext())
		if got != "Hi Amal!" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("missing path resolves to empty", func(t *testing.T) {
		got := Render("Hi {{patient.first_name}}, re {{deal.title}}", testContext())
		if got != "Hi Amal, re " {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("whitespace inside token", func(t *testing.T) {
		got := Render("Hi {{ patient.first_name }}!", testContext())
		if got != "Hi Amal!" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("non-traversable intermediate resolves to empty", func(t *testing.T) {
		got := Render("{{patient.first_name.x}}", testContext())
		if got != "" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("nil value resolves to empty", func(t *testing.T) {
		ctx := TemplateContext{"deal": map[string]interface{}{"notes": nil}}
		got := Render("n:{{deal.notes}}", ctx)
		if got != "n:" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("non-string value is stringified", func(t *testing.T) {
		ctx := TemplateContext{"deal": map[string]interface{}{"amount": 42}}
		got := Render("{{deal.amount}}", ctx)
		if got != "42" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("malformed token passes through", func(t *testing.T) {
		cases := []string{
			"{{}}",
			"{{a..b}}",
			"{{a b}}",
			"{{patient.first-name}}",
		}
		for _, c := range cases {
			if got := Render(c, testContext()); got != c {
				t.Errorf("expected %q to pass through, got %q", c, got)
			}
		}
	})

	t.Run("stray braces before a valid token", func(t *testing.T) {
		got := Render("{{x{{patient.first_name}}", testContext())
		if got != "{{xAmal" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("stray braces before a missing path resolve to empty", func(t *testing.T) {
		got := Render("{{x{{deal.title}}", testContext())
		if got != "{{x" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("doubled open braces", func(t *testing.T) {
		got := Render("{{{{patient.first_name}}", testContext())
		if got != "{{Amal" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("unterminated token passes through", func(t *testing.T) {
		got := Render("Hello {{patient.first_name", testContext())
		if got != "Hello {{patient.first_name" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("surrounding text unchanged", func(t *testing.T) {
		got := Render("  a {{patient.last_name}} b  ", testContext())
		if got != "  a Haddad b  " {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("idempotent without re-expansion", func(t *testing.T) {
		tmpl := "Hi {{patient.first_name}}, re {{deal.title}}"
		once := Render(tmpl, testContext())
		twice := Render(once, testContext())
		if once != twice {
			t.Errorf("render not idempotent: %q vs %q", once, twice)
		}
	})

	t.Run("no literal token remains for well-formed paths", func(t *testing.T) {
		tmpl := "{{a.b}} {{unknown.path.here}} {{patient.email}}"
		got := Render(tmpl, testContext())
		if got != "  amal@example.com" {
			t.Errorf("unexpected output: %q", got)
		}
	})
}
