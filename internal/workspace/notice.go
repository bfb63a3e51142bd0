package workspace

import "time"

// notifyLocked shows n and arms its dismissal. A newer notification is never
// cleared by an older timer.
func (w *Workspace) notifyLocked(kind NotificationKind, text string) {
	w.noticeSeq++
	seq := w.noticeSeq
	w.notification = &Notification{Kind: kind, Text: text}

	if w.noticeTimer != nil {
		w.noticeTimer.Stop()
		w.noticeTimer = nil
	}
	if w.notificationTTL <= 0 {
		return
	}

	w.noticeTimer = time.AfterFunc(w.notificationTTL, func() { w.dismiss(seq) })
}

func (w *Workspace) dismiss(seq uint64) {
	w.mu.Lock()
	if seq != w.noticeSeq || w.notification == nil {
		w.mu.Unlock()
		return
	}
	w.notification = nil
	w.noticeTimer = nil
	w.mu.Unlock()

	w.broadcast()
}
