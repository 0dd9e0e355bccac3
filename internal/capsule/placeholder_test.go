package capsule

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewType(t *testing.T) {
	t.Parallel()

	a, b := NewType(), NewType()
	if a == b {
		t.Errorf("NewType() returned the same tag twice: %q", a)
	}
	for _, tag := range []string{a, b} {
		if !ValidType(tag) {
			t.Errorf("NewType() = %q, not a valid type tag", tag)
		}
	}
}

func TestPlaceholder_Alphabet(t *testing.T) {
	t.Parallel()

	d := Descriptor{
		Type:   tableType,
		Prefix: "> ",
		Source: strings.Repeat("<table><tr><td>*_=`~|[]()!\\</td></tr></table>", 8),
		Suffix: "\t",
	}
	ph, err := Placeholder(d)
	if err != nil {
		t.Fatalf("Placeholder() error = %v", err)
	}

	if !strings.HasPrefix(ph, OpenDelim+tableType+":") || !strings.HasSuffix(ph, CloseDelim) {
		t.Fatalf("Placeholder() = %q, missing delimiters", ph)
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(ph, OpenDelim+tableType+":"), CloseDelim)
	if !regexp.MustCompile(`^[A-Za-z0-9+/]*$`).MatchString(payload) {
		t.Errorf("payload uses characters outside the base64 alphabet: %q", payload)
	}
	if strings.ContainsAny(payload, "\n=_*") {
		t.Errorf("payload contains Markdown-sensitive characters: %q", payload)
	}

	got, err := decodePayload(tableType, payload)
	if err != nil {
		t.Fatalf("decodePayload() error = %v", err)
	}
	if got != d {
		t.Errorf("decodePayload() = %+v, want %+v", got, d)
	}
}

func TestDecodePayload_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "not base64", payload: "!!!"},
		{name: "not msgpack", payload: "AAAA"},
		{name: "empty", payload: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := decodePayload(tableType, tt.payload); err == nil {
				t.Errorf("decodePayload(%q) expected error", tt.payload)
			}
		})
	}
}

func TestSourceWithoutPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		prefix string
		want   string
	}{
		{name: "no prefix", source: "<table></table>", prefix: "", want: "<table></table>"},
		{name: "single line keeps text", source: "<table></table>", prefix: "> ", want: "<table></table>"},
		{name: "continuation lines stripped", source: "<table>\n> <tr></tr>\n> </table>", prefix: "> ", want: "<table>\n<tr></tr>\n</table>"},
		{name: "line without prefix untouched", source: "<table>\n</table>", prefix: "> ", want: "<table>\n</table>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SourceWithoutPrefix(tt.source, tt.prefix); got != tt.want {
				t.Errorf("SourceWithoutPrefix(%q, %q) = %q, want %q", tt.source, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestUnrecoveredAndCount(t *testing.T) {
	t.Parallel()

	if got := Unrecovered("plain text"); got != nil {
		t.Errorf("Unrecovered(plain) = %v, want nil", got)
	}
	if got := Count("plain text"); got != 0 {
		t.Errorf("Count(plain) = %d, want 0", got)
	}

	a, _ := Placeholder(Descriptor{Type: "aaa", Source: "x"})
	b, _ := Placeholder(Descriptor{Type: "bbb", Source: "y"})
	text := "one " + a + " two " + b

	if got := Count(text); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	got := Unrecovered(text)
	if len(got) != 2 || got[0] != "aaa" || got[1] != "bbb" {
		t.Errorf("Unrecovered() = %v, want [aaa bbb]", got)
	}
}
