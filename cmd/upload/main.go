package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/inhies/go-bytesize"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
)

var addr = flag.String("addr", "http://localhost:5000", "frame server addr")
var scale = flag.Float64("scale", 1.0, "scale factor")
var offsetX = flag.Int("offset-x", 0, "horizontal offset")
var offsetY = flag.Int("offset-y", 0, "vertical offset")
var cropX = flag.Int("crop-x", 0, "crop origin x")
var cropY = flag.Int("crop-y", 0, "crop origin y")
var cropW = flag.Int("crop-w", 0, "crop width (0 for panel width)")
var cropH = flag.Int("crop-h", 0, "crop height (0 for panel height)")

type uploadResult struct {
	Success  bool   `json:"success"`
	Rotation int    `json:"rotation"`
	Error    string `json:"error"`
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: upload [flags] <image>")
	}
	file := flag.Arg(0)

	f, err := os.Open(file)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		log.Fatal(err)
	}

	bar := progressbar.DefaultBytes(st.Size(), fmt.Sprintf("Uploading %s", filepath.Base(file)))

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), f); err != nil {
		log.Fatal(err)
	}

	var result uploadResult
	resp, err := resty.New().R().
		SetFileReader("image", filepath.Base(file), &buf).
		SetFormData(map[string]string{
			"scale":    strconv.FormatFloat(*scale, 'f', -1, 64),
			"offset_x": strconv.Itoa(*offsetX),
			"offset_y": strconv.Itoa(*offsetY),
			"crop_x":   strconv.Itoa(*cropX),
			"crop_y":   strconv.Itoa(*cropY),
			"crop_w":   strconv.Itoa(*cropW),
			"crop_h":   strconv.Itoa(*cropH),
		}).
		SetResult(&result).
		Post(*addr + "/upload")
	if err != nil {
		log.Fatal(err)
	}
	if resp.IsError() {
		log.Fatalf("upload rejected: %s", resp.Status())
	}
	if !result.Success {
		log.Fatalf("upload failed: %s", result.Error)
	}

	fmt.Printf("sent %s, displayed at rotation %d\n", bytesize.New(float64(st.Size())), result.Rotation)
}
