//go:build linux

package linux

import "testing"

func TestAuditArchFor(t *testing.T) {
	tests := []struct {
		goarch string
		want   uint32
		ok     bool
	}{
		{"amd64", auditArchX86_64, true},
		{"arm64", auditArchAarch64, true},
		{"386", 0, false},
		{"riscv64", 0, false},
	}
	for _, tt := range tests {
		got, err := auditArchFor(tt.goarch)
		if tt.ok && err != nil {
			t.Errorf("auditArchFor(%q): %v", tt.goarch, err)
			continue
		}
		if !tt.ok && err == nil {
			t.Errorf("auditArchFor(%q): got nil error, want unsupported", tt.goarch)
			continue
		}
		if got != tt.want {
			t.Errorf("auditArchFor(%q): got 0x%x, want 0x%x", tt.goarch, got, tt.want)
		}
	}
}

func TestBuildTrapFilterLayout(t *testing.T) {
	nrs := []uint32{257, 263, 264}
	filter, err := buildTrapFilter(auditArchX86_64, nrs)
	if err != nil {
		t.Fatalf("buildTrapFilter: %v", err)
	}

	n := len(nrs)
	if want := 3 + n + 3; len(filter) != want {
		t.Fatalf("filter length: got %d, want %d", len(filter), want)
	}

	// [0] load arch.
	if filter[0].code != bpfLD|bpfW|bpfABS || filter[0].k != seccompDataArchOffset {
		t.Errorf("insn 0: got %+v, want load of arch field", filter[0])
	}
	// [1] arch check, jf lands on KILL.
	killIdx := 3 + n + 2
	if filter[1].code != bpfJMP|bpfJEQ|bpfK || filter[1].k != auditArchX86_64 {
		t.Errorf("insn 1: got %+v, want arch compare", filter[1])
	}
	if int(filter[1].jf) != killIdx-2 {
		t.Errorf("insn 1 jf: got %d, want %d", filter[1].jf, killIdx-2)
	}
	// [2] load syscall nr.
	if filter[2].code != bpfLD|bpfW|bpfABS || filter[2].k != seccompDataNrOffset {
		t.Errorf("insn 2: got %+v, want load of nr field", filter[2])
	}
	// [3..] each trapped nr jumps to TRACE on match.
	traceIdx := 3 + n + 1
	for i, nr := range nrs {
		idx := 3 + i
		insn := filter[idx]
		if insn.code != bpfJMP|bpfJEQ|bpfK || insn.k != nr {
			t.Errorf("insn %d: got %+v, want compare against %d", idx, insn, nr)
		}
		if int(insn.jt) != traceIdx-idx-1 {
			t.Errorf("insn %d jt: got %d, want %d", idx, insn.jt, traceIdx-idx-1)
		}
		if insn.jf != 0 {
			t.Errorf("insn %d jf: got %d, want fall-through", idx, insn.jf)
		}
	}
	// Tail returns.
	if filter[3+n].k != seccompRetAllow {
		t.Errorf("allow insn: got k=0x%x, want SECCOMP_RET_ALLOW", filter[3+n].k)
	}
	if filter[3+n+1].k != seccompRetTrace {
		t.Errorf("trace insn: got k=0x%x, want SECCOMP_RET_TRACE", filter[3+n+1].k)
	}
	if filter[3+n+2].k != seccompRetKill {
		t.Errorf("kill insn: got k=0x%x, want SECCOMP_RET_KILL", filter[3+n+2].k)
	}
}

func TestBuildTrapFilterSingleSyscall(t *testing.T) {
	filter, err := buildTrapFilter(auditArchAarch64, []uint32{56})
	if err != nil {
		t.Fatalf("buildTrapFilter: %v", err)
	}
	if len(filter) != 7 {
		t.Fatalf("filter length: got %d, want 7", len(filter))
	}
	// nr 56 at index 3 must jump straight to TRACE at index 5.
	if filter[3].jt != 1 {
		t.Errorf("trap jt: got %d, want 1", filter[3].jt)
	}
}

func TestBuildTrapFilterEmpty(t *testing.T) {
	if _, err := buildTrapFilter(auditArchX86_64, nil); err == nil {
		t.Fatal("buildTrapFilter: got nil, want error for empty trap set")
	}
}

func TestBuildTrapFilterTooLarge(t *testing.T) {
	nrs := make([]uint32, 201)
	for i := range nrs {
		nrs[i] = uint32(i)
	}
	if _, err := buildTrapFilter(auditArchX86_64, nrs); err == nil {
		t.Fatal("buildTrapFilter: got nil, want error for oversized trap set")
	}
}
