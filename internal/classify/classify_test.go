package classify

import "testing"

func TestRedirect(t *testing.T) {
	c := New([]string{"com.plexapp.plugins.library.db"}, nil)
	if !c.Redirect("/data/Plug-in Support/Databases/com.plexapp.plugins.library.db") {
		t.Fatal("expected redirect match")
	}
	if c.Redirect("/data/other.db") {
		t.Fatal("did not expect redirect match")
	}
}

func TestRedirectCaseInsensitive(t *testing.T) {
	c := New([]string{"LIBRARY.DB"}, nil)
	if !c.Redirect("/data/library.db") {
		t.Fatal("expected case-insensitive match")
	}
}

func TestSkip(t *testing.T) {
	c := New(nil, []string{"pragma ", "attach database"})
	cases := map[string]bool{
		"PRAGMA journal_mode=WAL":        true,
		"  pragma foreign_keys=1":        true,
		"ATTACH DATABASE 'x' AS y":       true,
		"SELECT * FROM t":                false,
		"select pragma_table_info('t')":  false, // no trailing space, must not match
	}
	for sql, want := range cases {
		if got := c.Skip(sql); got != want {
			t.Errorf("Skip(%q) = %v, want %v", sql, got, want)
		}
	}
}

func TestSkipIdempotentOnWhitespace(t *testing.T) {
	c := New(nil, []string{"vacuum"})
	if c.Skip("VACUUM") != c.Skip("   VACUUM   ") {
		t.Fatal("skip classification must be whitespace-insensitive")
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"SELECT 1":                    Read,
		"  select * from t":           Read,
		"INSERT INTO t(x) VALUES (1)": Write,
		"update t set x=1":            Write,
		"DELETE FROM t":               Write,
		"REPLACE INTO t VALUES (1)":   Write,
		"BEGIN":                       Other,
		"":                            Other,
	}
	for sql, want := range cases {
		if got := Classify(sql); got != want {
			t.Errorf("Classify(%q) = %v, want %v", sql, got, want)
		}
	}
}
