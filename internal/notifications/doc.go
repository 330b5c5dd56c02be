// Package notifications models the transient notification feed a host shows to
// the user and provides a Monitor that polls it for expected messages.
//
// The Monitor only inspects what is visible at each poll tick. A message that
// appeared and scrolled away between ticks is never reported retroactively.
package notifications
