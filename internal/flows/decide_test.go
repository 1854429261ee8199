package flows

import (
	"testing"

	"github.com/MrEthical07/mongoAuth/account"
)

func TestDecideLoginNotFound(t *testing.T) {
	d := DecideLogin(nil, true, 3)
	if d.Status != NotFound || d.Patch != nil {
		t.Fatalf("expected NotFound without patch, got %+v", d)
	}
}

func TestDecideLoginBlockedIgnoresPassword(t *testing.T) {
	for _, matches := range []bool{true, false} {
		d := DecideLogin(&account.State{Active: true, Blocked: true, Attempts: 3}, matches, 3)
		if d.Status != Blocked {
			t.Fatalf("matches=%v: expected Blocked, got %s", matches, d.Status)
		}
		if d.Patch != nil {
			t.Fatalf("matches=%v: blocked account must not be written", matches)
		}
	}
}

func TestDecideLoginInactiveIssuesCode(t *testing.T) {
	d := DecideLogin(&account.State{Active: false, Attempts: 2}, true, 3)
	if d.Status != SendCode || !d.NeedsCode || d.NeedsToken {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Patch == nil || d.Patch.Attempts == nil || *d.Patch.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %+v", d.Patch)
	}
}

func TestDecideLoginActiveIssuesToken(t *testing.T) {
	d := DecideLogin(&account.State{Active: true, Attempts: 1}, true, 3)
	if d.Status != Logined || !d.NeedsToken || d.NeedsCode || d.Guard {
		t.Fatalf("unexpected decision %+v", d)
	}
	if *d.Patch.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %d", *d.Patch.Attempts)
	}
}

func TestDecideLoginWrongPasswordCounts(t *testing.T) {
	const max = 5
	for prev := 0; prev < max+2; prev++ {
		for _, active := range []bool{true, false} {
			d := DecideLogin(&account.State{Active: active, Attempts: prev}, false, max)
			if d.Patch == nil || d.Patch.Attempts == nil || !d.Guard {
				t.Fatalf("prev=%d: expected guarded attempts write, got %+v", prev, d)
			}

			want := prev + 1
			if want > max {
				want = max
			}
			if got := *d.Patch.Attempts; got != want {
				t.Fatalf("prev=%d: attempts=%d want %d", prev, got, want)
			}

			blocks := want == max
			if d.Blocks != blocks || (d.Status == Blocked) != blocks {
				t.Fatalf("prev=%d: blocks=%v status=%s", prev, d.Blocks, d.Status)
			}
			if blocks {
				if d.Patch.Blocked == nil || !*d.Patch.Blocked {
					t.Fatalf("prev=%d: expected block flag in patch", prev)
				}
				continue
			}
			if d.Status != LeftAttempts || d.LeftAttempts != max-prev-1 {
				t.Fatalf("prev=%d: got %s(%d)", prev, d.Status, d.LeftAttempts)
			}
		}
	}
}

func TestDecideRegister(t *testing.T) {
	if d := DecideRegister(&account.State{}); d.Status != UserExists || d.Create {
		t.Fatalf("expected UserExists, got %+v", d)
	}
	if d := DecideRegister(nil); d.Status != SendCode || !d.Create {
		t.Fatalf("expected create, got %+v", d)
	}
}

func TestDecideForgot(t *testing.T) {
	if d := DecideForgot(nil); d.Status != WrongEmail || d.NeedsCode {
		t.Fatalf("expected WrongEmail, got %+v", d)
	}
	if d := DecideForgot(&account.State{}); d.Status != SendCode || !d.NeedsCode {
		t.Fatalf("expected SendCode, got %+v", d)
	}
}

func TestDecideConfirm(t *testing.T) {
	if d := DecideConfirm(nil, nil); d.Status != WrongConfirmCode || d.Patch != nil {
		t.Fatalf("expected WrongConfirmCode, got %+v", d)
	}

	d := DecideConfirm(&account.State{Active: false, Attempts: 2}, nil)
	if d.Status != Logined || !d.Activates || !d.NeedsToken {
		t.Fatalf("unexpected decision %+v", d)
	}
	p := d.Patch
	if !p.ClearCode || p.Active == nil || !*p.Active || p.Attempts == nil || *p.Attempts != 0 || p.PasswordHash != nil {
		t.Fatalf("unexpected patch %+v", p)
	}

	hash := "new-hash"
	d = DecideConfirm(&account.State{Active: true}, &hash)
	if d.Activates {
		t.Fatal("already active account must not report activation")
	}
	if d.Patch.PasswordHash == nil || *d.Patch.PasswordHash != "new-hash" {
		t.Fatalf("expected password replacement, got %+v", d.Patch)
	}
}

func TestStatusString(t *testing.T) {
	if Logined.String() != "logined" || WrongConfirmCode.String() != "wrong_confirm_code" {
		t.Fatal("unexpected status names")
	}
	if Status(200).String() != "unknown" {
		t.Fatal("expected unknown for out of range status")
	}
	if StatusCount != 11 {
		t.Fatalf("expected 11 statuses, got %d", StatusCount)
	}
}
