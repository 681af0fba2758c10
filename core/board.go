package core

import "time"

// PinReset is the WINC1500 power-up sequence on CHIP_EN and RESET_N.
type PinReset struct {
	ChipEnable OutputPin
	ResetN     OutputPin

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Reset holds the module in reset, enables it, then releases reset.
func (p *PinReset) Reset() error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	chipEn, resetN := p.ChipEnable, p.ResetN
	if chipEn == nil {
		chipEn = NopPin
	}
	if resetN == nil {
		resetN = NopPin
	}

	chipEn(false)
	resetN(false)
	sleep(100 * time.Millisecond)
	chipEn(true)
	sleep(10 * time.Millisecond)
	resetN(true)
	sleep(10 * time.Millisecond)
	return nil
}
