package j2krecon

import (
	"fmt"
	"testing"
)

var benchSizes = []struct {
	name          string
	width, height int
}{
	{"64x64", 64, 64},
	{"256x256", 256, 256},
	{"1024x1024", 1024, 1024},
}

func BenchmarkSynthesize53(b *testing.B) {
	for _, n := range []int{8, 64, 512, 4096} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			var bufs liftBufs
			data := testSignal(n, 3)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				bufs.synthesize53(data, 0)
			}
		})
	}
}

func BenchmarkSynthesize97(b *testing.B) {
	for _, n := range []int{8, 64, 512, 4096} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			var bufs liftBufs
			data := make([]float64, n)
			for i, v := range testSignal(n, 3) {
				data[i] = float64(v)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				bufs.synthesize97(data, 0)
			}
		})
	}
}

func BenchmarkSynthesize2D(b *testing.B) {
	for _, f := range []WaveletType{Wavelet53, Wavelet97} {
		for _, size := range benchSizes[:2] {
			b.Run(f.String()+"/"+size.name, func(b *testing.B) {
				tree, err := BuildSubbandTree(TreeParams{W: size.width, H: size.height, Levels: 1, Filter: f})
				if err != nil {
					b.Fatal(err)
				}
				var buf *Block
				if f == Wavelet53 {
					buf = NewIntBlock(0, 0, size.width, size.height)
					copy(buf.Ints, testSignal(len(buf.Ints), 5))
				} else {
					buf = NewFloatBlock(0, 0, size.width, size.height)
				}
				var bufs liftBufs
				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if err := bufs.synthesize2D(buf, tree.Root()); err != nil {
						b.Fatal(err)
					}
				}
				b.SetBytes(int64(size.width * size.height * 4))
			})
		}
	}
}

func benchColorBlocks(size int, t DataType) (in, out [3]*Block) {
	for c := range 3 {
		if t == TypeInt {
			in[c] = NewIntBlock(0, 0, size, size)
			copy(in[c].Ints, testSignal(size*size, uint32(c)))
			out[c] = NewIntBlock(0, 0, size, size)
		} else {
			in[c] = NewFloatBlock(0, 0, size, size)
			for i, v := range testSignal(size*size, uint32(c)) {
				in[c].Floats[i] = float64(v)
			}
			out[c] = NewIntBlock(0, 0, size, size)
		}
	}
	return in, out
}

func BenchmarkInverseRCT(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			in, out := benchColorBlocks(size.width, TypeInt)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := inverseRCT(in, out); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(size.width * size.height * 4 * 3)) // 3 components, 4 bytes each
		})
	}
}

func BenchmarkInverseICT(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			in, out := benchColorBlocks(size.width, TypeFloat)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := inverseICT(in, out); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(int64(size.width * size.height * 8 * 3))
		})
	}
}

func BenchmarkPipeline(b *testing.B) {
	img := randomRGBA(256, 256, 9)
	p, err := NewPlanarImageFromImage(img)
	if err != nil {
		b.Fatal(err)
	}
	for _, opts := range []MemSourceOptions{
		{Levels: 5, Filter: Wavelet53, Transform: CTRCT, Quantize: true},
		{Levels: 5, Filter: Wavelet97, Transform: CTICT, Quantize: true},
	} {
		b.Run(opts.Filter.String(), func(b *testing.B) {
			tl, err := NewTiler(p, 0, 0, 0, 0, 128, 128)
			if err != nil {
				b.Fatal(err)
			}
			ms, err := BuildMemSource(tl, opts)
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				wt, err := NewInvWT(NewDequantizer(NewROIDeScaler(ms, ms.Specs())), InvWTOptions{ResLevel: -1})
				if err != nil {
					b.Fatal(err)
				}
				if _, err := ToImage(NewInvCompTransf(wt, ms.Specs(), wt)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
