// Copyright 2025 go-jpeg2000 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package j2krecon

import (
	"sync"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// stridedToImage copies a w x h strided region into a SIMD-aligned image.
// Rows of src start at off + y*scanw.
func stridedToImage[T hwy.Lanes](src []T, off, scanw int, img *image.Image[T]) {
	w := img.Width()
	for y := range img.Height() {
		row := img.Row(y)
		s := off + y*scanw
		copy(row[:w], src[s:s+w])
	}
}

// imageToStrided copies a SIMD-aligned image into a strided region of dst.
func imageToStrided[T hwy.Lanes](img *image.Image[T], dst []T, off, scanw int) {
	w := img.Width()
	for y := range img.Height() {
		row := img.Row(y)
		d := off + y*scanw
		copy(dst[d:d+w], row[:w])
	}
}

// imageBufInt32 holds 6 pooled SIMD-aligned images for int32 color transforms
// (3 input + 3 output).
type imageBufInt32 struct {
	imgs [6]*image.Image[int32]
	w, h int
}

// imageBufFloat64 holds 6 pooled SIMD-aligned images for float64 color transforms.
type imageBufFloat64 struct {
	imgs [6]*image.Image[float64]
	w, h int
}

var int32ImagePool = sync.Pool{New: func() any { return new(imageBufInt32) }}
var float64ImagePool = sync.Pool{New: func() any { return new(imageBufFloat64) }}

func getInt32Buf(w, h int) *imageBufInt32 {
	buf := int32ImagePool.Get().(*imageBufInt32)
	if buf.w != w || buf.h != h {
		for i := range buf.imgs {
			buf.imgs[i] = image.NewImage[int32](w, h)
		}
		buf.w = w
		buf.h = h
	}
	return buf
}

func putInt32Buf(buf *imageBufInt32) {
	int32ImagePool.Put(buf)
}

func getFloat64Buf(w, h int) *imageBufFloat64 {
	buf := float64ImagePool.Get().(*imageBufFloat64)
	if buf.w != w || buf.h != h {
		for i := range buf.imgs {
			buf.imgs[i] = image.NewImage[float64](w, h)
		}
		buf.w = w
		buf.h = h
	}
	return buf
}

func putFloat64Buf(buf *imageBufFloat64) {
	float64ImagePool.Put(buf)
}
