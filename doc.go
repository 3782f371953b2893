// Package j2krecon implements the tiled, multi-resolution reconstruction
// core of a JPEG 2000 style wavelet decoder.
//
// The package covers four pull-based stages that sit between an entropy
// decoder and an image consumer:
//
//   - ROIDeScaler restores background coefficients of code-blocks that were
//     transmitted with a region-of-interest max-shift.
//   - InvWT reconstructs tile-component samples from a subband tree using
//     the reversible 5/3 (int32) or irreversible 9/7 (float64) lifting
//     kernels, optionally stopping at a lower resolution level.
//   - InvCompTransf undoes the reversible (RCT) or irreversible (ICT)
//     component transform on the first three components.
//   - Tiler presents an untiled, origin-zero image as a tiled image placed
//     on a reference-grid canvas.
//
// Entropy decoding and codestream parsing are not part of this package;
// they are consumed through the CodeBlockSource interface. MemSource is an
// in-memory CodeBlockSource, useful for tests and for callers that already
// hold coefficients.
//
// A typical decode chain:
//
//	roi := j2krecon.NewROIDeScaler(src, specs)
//	deq := j2krecon.NewDequantizer(roi)
//	wt, err := j2krecon.NewInvWT(deq, j2krecon.InvWTOptions{ResLevel: -1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ct := j2krecon.NewInvCompTransf(wt, specs, wt)
//	img, err := j2krecon.ToImage(ct)
//
// None of the stages are safe for concurrent use. A tile must be selected
// with SetTile or NextTile before any block is requested, and every block
// returned by an Intern* method is borrowed: it must be treated as
// read-only and not retained past the next call on the same stage.
package j2krecon
