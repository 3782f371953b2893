package j2krecon

import (
	"github.com/pkg/errors"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

// Inverse ICT coefficients (ITU-T T.800 G.3), applied to (Y, Cb, Cr).
const (
	ictCrToR = 1.402
	ictCbToG = 0.34413
	ictCrToG = 0.71414
	ictCbToB = 1.772
)

// sameExtent checks that three blocks share one size and data type.
func sameExtent(blks [3]*Block, t DataType) error {
	for i, b := range blks {
		if b.Type != t {
			return errors.Wrapf(ErrDataType, "component %d is %s, want %s", i, b.Type, t)
		}
		if b.W != blks[0].W || b.H != blks[0].H {
			return errors.Wrapf(ErrInvalidBlock, "component %d is %dx%d, want %dx%d", i, b.W, b.H, blks[0].W, blks[0].H)
		}
	}
	return nil
}

// inverseRCT applies the inverse Reversible Color Transform (lossless):
//
//	C1 = Y0 - floor((Y1 + Y2) / 4)
//	C0 = Y2 + C1
//	C2 = Y1 + C1
//
// in and out hold int blocks of equal size; out may alias in.
func inverseRCT(in, out [3]*Block) error {
	if err := sameExtent(in, TypeInt); err != nil {
		return err
	}
	if err := sameExtent(out, TypeInt); err != nil {
		return err
	}
	w, h := in[0].W, in[0].H
	if w == 0 || h == 0 {
		return nil
	}
	buf := getInt32Buf(w, h)
	defer putInt32Buf(buf)

	for i, b := range in {
		stridedToImage(b.Ints, b.Offset, b.Scanw, buf.imgs[i])
	}
	hwyimage.InverseRCT(buf.imgs[0], buf.imgs[1], buf.imgs[2], buf.imgs[3], buf.imgs[4], buf.imgs[5])
	for i, b := range out {
		imageToStrided(buf.imgs[3+i], b.Ints, b.Offset, b.Scanw)
	}
	return nil
}

// inverseICT applies the inverse Irreversible Color Transform (lossy):
//
//	C0 = Y0 + 1.402 * Y2
//	C1 = Y0 - 0.34413 * Y1 - 0.71414 * Y2
//	C2 = Y0 + 1.772 * Y1
//
// in holds float blocks, out int blocks; results are rounded with a +0.5
// bias before truncation.
func inverseICT(in, out [3]*Block) error {
	if err := sameExtent(in, TypeFloat); err != nil {
		return err
	}
	if err := sameExtent(out, TypeInt); err != nil {
		return err
	}
	for y := range in[0].H {
		y0, y1, y2 := in[0].FloatRow(y), in[1].FloatRow(y), in[2].FloatRow(y)
		c0, c1, c2 := out[0].IntRow(y), out[1].IntRow(y), out[2].IntRow(y)
		for x := range y0 {
			c0[x] = roundSample(y0[x] + ictCrToR*y2[x])
			c1[x] = roundSample(y0[x] - ictCbToG*y1[x] - ictCrToG*y2[x])
			c2[x] = roundSample(y0[x] + ictCbToB*y1[x])
		}
	}
	return nil
}

// forwardRCT applies the forward Reversible Color Transform (lossless).
// Converts from RGB to YCbCr using integer arithmetic per ITU-T T.800 G.2:
//
//	Y  = floor((R + 2G + B) / 4)
//	Cb = B - G
//	Cr = R - G
//
// forwardRCT followed by inverseRCT yields the original values.
func forwardRCT(in, out [3]*Block) error {
	if err := sameExtent(in, TypeInt); err != nil {
		return err
	}
	if err := sameExtent(out, TypeInt); err != nil {
		return err
	}
	w, h := in[0].W, in[0].H
	if w == 0 || h == 0 {
		return nil
	}
	buf := getInt32Buf(w, h)
	defer putInt32Buf(buf)

	for i, b := range in {
		stridedToImage(b.Ints, b.Offset, b.Scanw, buf.imgs[i])
	}
	hwyimage.ForwardRCT(buf.imgs[0], buf.imgs[1], buf.imgs[2], buf.imgs[3], buf.imgs[4], buf.imgs[5])
	for i, b := range out {
		imageToStrided(buf.imgs[3+i], b.Ints, b.Offset, b.Scanw)
	}
	return nil
}

// forwardICT applies the forward Irreversible Color Transform (lossy)
// per ITU-T T.800 G.2:
//
//	Y  =  0.299   * R + 0.587   * G + 0.114   * B
//	Cb = -0.16875 * R - 0.33126 * G + 0.5     * B
//	Cr =  0.5     * R - 0.41869 * G - 0.08131 * B
func forwardICT(in, out [3]*Block) error {
	if err := sameExtent(in, TypeFloat); err != nil {
		return err
	}
	if err := sameExtent(out, TypeFloat); err != nil {
		return err
	}
	w, h := in[0].W, in[0].H
	if w == 0 || h == 0 {
		return nil
	}
	buf := getFloat64Buf(w, h)
	defer putFloat64Buf(buf)

	for i, b := range in {
		stridedToImage(b.Floats, b.Offset, b.Scanw, buf.imgs[i])
	}
	hwyimage.ForwardICT(buf.imgs[0], buf.imgs[1], buf.imgs[2], buf.imgs[3], buf.imgs[4], buf.imgs[5])
	for i, b := range out {
		imageToStrided(buf.imgs[3+i], b.Floats, b.Offset, b.Scanw)
	}
	return nil
}
