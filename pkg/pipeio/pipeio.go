package pipeio

import (
	"io"
)

// chunkSize matches the serial engine's read buffer.
const chunkSize = 1024

// Pump reads r in chunks and hands each chunk to write until r is
// exhausted or fails. io.EOF is a clean shutdown, any other error is
// returned.
func Pump(r io.Reader, write func([]byte)) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			write(chunk)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
