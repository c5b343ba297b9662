// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package threadpool

import (
	"github.com/oxslab/mmcore/mm/xerr"
)

// SetError accumulates err into the process-wide error relay, concatenating
// messages from multiple workers exactly as Oxs_ThreadError::SetError does,
// rather than overwriting: a job that fails on several workers at once
// should not silently drop all but one failure.
func (p *Pool) SetError(err error) {
	if err == nil {
		return
	}
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.errSet {
		p.errText += "\n" + err.Error()
	} else {
		p.errSet = true
		p.errText = err.Error()
	}
}

// IsError reports whether an error is currently pending in the relay.
func (p *Pool) IsError() bool {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.errSet
}

// CheckAndClearError atomically reports and clears the pending error, if
// any, returning nil when the relay is empty.
func (p *Pool) CheckAndClearError() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if !p.errSet {
		return nil
	}
	err := xerr.New(xerr.BadThread, p.errText)
	p.errSet = false
	p.errText = ""
	return err
}

// ClearError drops any pending error without reporting it.
func (p *Pool) ClearError() {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.errSet = false
	p.errText = ""
}
