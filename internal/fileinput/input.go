package fileinput

import (
	"fmt"
	"io"

	"github.com/jcorbin/htrof/internal/lineio"
)

// Location names a line in a Source.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }

// Source holds every line read from one named input stream.
type Source struct {
	Name  string
	Lines []string
}

// Location returns the location of the i-th line, counting lines from 1.
func (src Source) Location(i int) Location { return Location{src.Name, i + 1} }

func (src Source) String() string {
	return fmt.Sprintf("%v (%v lines)", src.Name, len(src.Lines))
}

// ReadLines reads r until EOF. An empty name is filled in from r's Name()
// method, if it has one.
func ReadLines(name string, r io.Reader) (src Source, err error) {
	if name == "" {
		name = nameOf(r)
	}
	src.Name = name
	lr := lineio.NewReader(r)
	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			return src, nil
		}
		if err != nil {
			return src, fmt.Errorf("%v: %w", src.Location(len(src.Lines)), err)
		}
		src.Lines = append(src.Lines, line)
	}
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
