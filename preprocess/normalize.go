package preprocess

import (
	"image"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

var useWideChunks = cpu.X86.HasAVX2 || cpu.X86.HasAVX512

// Normalize maps an 8-bit intensity into the model input range [-1, 1]:
// (v/255 - 0.5) * 2.
func Normalize(v uint8) float32 {
	return (float32(v)/255.0 - 0.5) * 2.0
}

// Denormalize is the inverse of Normalize, rounded and clamped back to the
// 8-bit display range: ((v/2) + 0.5) * 255.
func Denormalize(v float32) uint8 {
	raw := math.Round(float64((v/2.0 + 0.5) * 255.0))
	if raw < 0 {
		return 0
	}
	if raw > 255 {
		return 255
	}
	return uint8(raw)
}

// imageToTensor converts a size×size image into a normalized HWC float32
// tensor. Rows are converted in parallel; chunking follows the detected
// vector width.
func imageToTensor(img image.Image, size int) []float32 {
	tensor := make([]float32, size*size*Channels)

	chunkRows := narrowChunkRows
	if useWideChunks {
		chunkRows = wideChunkRows
	}

	nrgba, fast := img.(*image.NRGBA)

	numWorkers := runtime.GOMAXPROCS(0)
	jobs := make(chan int, numWorkers)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for startY := range jobs {
				endY := startY + chunkRows
				if endY > size {
					endY = size
				}
				if fast {
					convertRowsNRGBA(tensor, nrgba, size, startY, endY)
				} else {
					convertRowsGeneric(tensor, img, size, startY, endY)
				}
			}
		}()
	}

	for y := 0; y < size; y += chunkRows {
		jobs <- y
	}
	close(jobs)
	wg.Wait()

	return tensor
}

func convertRowsNRGBA(tensor []float32, img *image.NRGBA, size, startY, endY int) {
	for y := startY; y < endY; y++ {
		src := img.Pix[y*img.Stride:]
		dst := tensor[y*size*Channels:]
		for x := 0; x < size; x++ {
			dst[x*Channels+0] = Normalize(src[x*4+0])
			dst[x*Channels+1] = Normalize(src[x*4+1])
			dst[x*Channels+2] = Normalize(src[x*4+2])
		}
	}
}

func convertRowsGeneric(tensor []float32, img image.Image, size, startY, endY int) {
	for y := startY; y < endY; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * Channels
			r, g, b, _ := img.At(x, y).RGBA()
			tensor[i+0] = Normalize(uint8(r >> 8))
			tensor[i+1] = Normalize(uint8(g >> 8))
			tensor[i+2] = Normalize(uint8(b >> 8))
		}
	}
}

// ToImage reconstructs the displayable image from a normalized HWC tensor.
// Exact inverse of imageToTensor up to rounding.
func ToImage(tensor []float32, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * Channels
			o := y*img.Stride + x*4
			img.Pix[o+0] = Denormalize(tensor[i+0])
			img.Pix[o+1] = Denormalize(tensor[i+1])
			img.Pix[o+2] = Denormalize(tensor[i+2])
			img.Pix[o+3] = 0xff
		}
	}
	return img
}
