package csr

import (
	"testing"

	"github.com/rcornwell/rv64cosim/internal/riscv"
)

func TestResetState(t *testing.T) {
	f := NewFile(0)
	if f.Priv != riscv.Machine {
		t.Errorf("reset privilege = %v, want M", f.Priv)
	}
	if f.NumPMP != PMPEntries {
		t.Errorf("NumPMP = %d, want %d", f.NumPMP, PMPEntries)
	}
}

func TestReadOnlyCSRRejectsWrite(t *testing.T) {
	f := NewFile(0)
	if ok := f.Write(Mhartid, 5); ok {
		t.Errorf("write to mhartid should be rejected")
	}
}

func TestSatpWriteFlushesTLB(t *testing.T) {
	f := NewFile(0)
	flushed := false
	f.TLBFlush = func() { flushed = true }
	f.Write(Satp, 0x8000_0000_0000_0001)
	if !flushed {
		t.Errorf("satp write did not invoke TLBFlush")
	}
	if f.SatpReg != 0x8000_0000_0000_0001 {
		t.Errorf("SatpReg not updated")
	}
}

func TestMipSoftwareWriteMask(t *testing.T) {
	f := NewFile(0)
	f.Write(Mip, ^uint64(0))
	if f.Mip != mipSoftwareMask {
		t.Errorf("Mip = %#x, want only software-writable bits %#x", f.Mip, mipSoftwareMask)
	}
}

func TestTrapDelegationToSupervisor(t *testing.T) {
	f := NewFile(0)
	f.Priv = riscv.Supervisor
	f.Medeleg = 1 << riscv.CauseIllegalInsn
	f.Stvec = 0x8000_2000

	priv, pc := f.Trap(riscv.CauseIllegalInsn, 0x1234, false, 0x8000_1000)
	if priv != riscv.Supervisor {
		t.Errorf("priv = %v, want S", priv)
	}
	if pc != 0x8000_2000 {
		t.Errorf("pc = %#x, want stvec", pc)
	}
	if f.Sepc != 0x8000_1000 {
		t.Errorf("sepc = %#x, want 0x8000_1000", f.Sepc)
	}
	if f.Scause != riscv.CauseIllegalInsn {
		t.Errorf("scause = %d, want %d", f.Scause, riscv.CauseIllegalInsn)
	}
}

func TestTrapNotDelegatedGoesToMachine(t *testing.T) {
	f := NewFile(0)
	f.Priv = riscv.User
	f.Mtvec = 0x8000_0000

	priv, pc := f.Trap(riscv.CauseBreakpoint, 0, false, 0x100)
	if priv != riscv.Machine {
		t.Errorf("priv = %v, want M", priv)
	}
	if pc != 0x8000_0000 {
		t.Errorf("pc = %#x, want mtvec", pc)
	}
	if f.Mepc != 0x100 {
		t.Errorf("mepc = %#x, want 0x100", f.Mepc)
	}
}

func TestVectoredInterruptTarget(t *testing.T) {
	f := NewFile(0)
	f.Mtvec = 0x8000_0000 | 1
	_, pc := f.Trap(riscv.IntMTimer, 0, true, 0)
	if pc != 0x8000_0000+4*riscv.IntMTimer {
		t.Errorf("pc = %#x, want vectored target", pc)
	}
}

func TestMRETRestoresPriorPrivilege(t *testing.T) {
	f := NewFile(0)
	f.Priv = riscv.Machine
	f.Mstatus |= uint64(riscv.Supervisor) << riscv.MstatusMPPShift
	f.Mepc = 0x8000_4000

	priv, pc := f.MRET()
	if priv != riscv.Supervisor {
		t.Errorf("priv = %v, want S", priv)
	}
	if pc != 0x8000_4000 {
		t.Errorf("pc = %#x, want mepc", pc)
	}
}

func TestPendingInterruptPriority(t *testing.T) {
	f := NewFile(0)
	f.Mstatus |= 1 << riscv.MstatusMIEShift
	f.Mie = (1 << riscv.IntMTimer) | (1 << riscv.IntMExternal)
	f.Mip = (1 << riscv.IntMTimer) | (1 << riscv.IntMExternal)
	if got := f.PendingInterrupt(); got != riscv.IntMExternal {
		t.Errorf("PendingInterrupt = %d, want external (%d)", got, riscv.IntMExternal)
	}
}

func TestPMPDefaultDeniesNonMachine(t *testing.T) {
	f := NewFile(0)
	f.Priv = riscv.Supervisor
	if f.CheckPMP(0x8000_0000, PMPRead) {
		t.Errorf("unconfigured PMP should deny non-M access")
	}
	f.Priv = riscv.Machine
	if !f.CheckPMP(0x8000_0000, PMPRead) {
		t.Errorf("unconfigured PMP should allow M access")
	}
}

func TestPMPNapotRegion(t *testing.T) {
	f := NewFile(0)
	f.Priv = riscv.Supervisor
	// NAPOT region covering [0x8000_0000, 0x8000_1000) -> addr encodes
	// base>>2 with trailing ones for the size field.
	f.PMPAddr[0] = (0x8000_0000 >> 2) | ((0x1000 >> 3) - 1)
	f.PMPCfg[0] = pmpR | pmpW | (pmpANAPOT << 3)

	if !f.CheckPMP(0x8000_0500, PMPRead) {
		t.Errorf("expected PMP to grant read inside NAPOT region")
	}
	if !f.CheckPMP(0x8000_0500, PMPWrite) {
		t.Errorf("expected PMP to grant write inside NAPOT region")
	}
	if f.CheckPMP(0x8000_0500, PMPExec) {
		t.Errorf("expected PMP to deny exec (X not set)")
	}
}
