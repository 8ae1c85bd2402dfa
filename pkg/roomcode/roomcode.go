package roomcode

import (
	"strconv"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	alphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	randomLength = 8
)

type Generator struct {
	random func() string
	now    func() time.Time
}

func NewGenerator() (*Generator, error) {
	random, err := nanoid.CustomASCII(alphabet, randomLength)
	if err != nil {
		return nil, err
	}
	return &Generator{random: random, now: time.Now}, nil
}

// New код вида "LX3K9Q2A1-1IG0V1W5": время в мс base36, дефис, 8 случайных
// символов base36, всё в верхнем регистре.
func (g *Generator) New() string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 36)
	return strings.ToUpper(ts + "-" + g.random())
}
