package session

import "testing"

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{0, "none"},
		{KindDesktopManage, "desktop-manage"},
		{KindDesktopManage | KindFileTransfer, "desktop-manage|file-transfer"},
		{1 << 20, "unknown"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%#x).String() = %q, want %q", uint32(tc.kind), got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"desktop-manage", "desktop-view", "file-transfer", "system-info"} {
		kind, ok := ParseKind(name)
		if !ok {
			t.Errorf("ParseKind(%q) missed", name)
			continue
		}
		if kind.String() != name {
			t.Errorf("round trip %q -> %q", name, kind.String())
		}
	}
	if _, ok := ParseKind("nope"); ok {
		t.Error("ParseKind accepted unknown name")
	}
}
