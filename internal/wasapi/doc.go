// Package wasapi is the Windows audio backend: it implements audio.Enumerator
// on top of the MMDevice API. On other platforms Open always fails with
// audio.ErrUnsupported.
package wasapi
