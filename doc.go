// Package wsurf manages the color buffers of rendering surfaces bound to
// native windows.
//
// # Overview
//
// A [Display] binds a window system ([Windowing]) to a rendering backend
// ([Backend]). At [Open] the backend's configs are matched against the small
// table of pixel formats in package visual, and the display picks one of two
// presentation paths:
//
//   - GPU: the backend renders into shareable images. Each image is wrapped
//     in a native drawable (PRIME descriptor, exported name or kernel handle)
//     and blitted onto the window.
//   - Software: the backend renders into CPU memory and hands finished frames
//     over through PutImage; rows are copied into shared memory buffers that
//     the window system blits.
//
// The GPU path is tried first and the software path is the fallback.
//
// # Quick Start
//
//	d, err := wsurf.Open(windowing, backend)
//	if err != nil {
//	    return err
//	}
//	defer d.Terminate()
//
//	cfg, _ := d.ChooseConfig(visual.XRGB8888)
//	s, err := d.CreateWindowSurface(cfg, window, nil)
//	if err != nil {
//	    return err
//	}
//	// The backend pulls buffers through the surface (see ImageLoader,
//	// SoftwareLoader) and the application presents:
//	err = s.SwapBuffers()
//
// # Buffers
//
// Every surface owns four color buffers. The back buffer is the one being
// rendered; the current buffer is on screen. Both are locked while
// referenced. After each acquisition idle buffers are freed, so a steady
// stream of frames uses two buffers. The window size is queried before every
// frame; when it changed, all buffers are invalidated and reallocated at the
// new size.
//
// # Errors
//
// Failing calls return wrapped sentinel errors ([ErrAllocFailed],
// [ErrBadMatch], ...) and record an EGL error code that [Display.GetError]
// returns. An allocation failure fails the current frame only.
//
// # Collaborators
//
// Subpackages provide reference collaborators: halbackend renders with
// gogpu/wgpu HAL devices, swrast is a software backend and memwin an
// in-memory window system.
package wsurf
