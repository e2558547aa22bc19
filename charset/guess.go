package charset

// Guess picks the most likely character set of data among UTF-8,
// ISO-8859-1 and Shift_JIS.
func Guess(data []byte) Name {
	if len(data) > 3 && data[0] == 0xef && data[1] == 0xbb && data[2] == 0xbf {
		return UTF8
	}

	var (
		u utf8Check
		l latin1Check
		j sjisCheck
	)
	u.ok, l.ok, j.ok = true, true, true
	for _, b := range data {
		if !u.ok && !l.ok && !j.ok {
			break
		}
		u.feed(b)
		l.feed(b)
		j.feed(b)
	}
	u.ok = u.ok && u.pending == 0
	j.ok = j.ok && j.pending == 0

	switch {
	case u.ok && u.multi > 0:
		return UTF8
	case j.ok && (j.maxKana >= 3 || j.maxDouble >= 3):
		return ShiftJIS
	case l.ok && j.ok:
		if (j.maxKana == 2 && j.kana == 2) || l.highOther*10 >= len(data) {
			return ShiftJIS
		}
		return ISO8859_1
	case l.ok:
		return ISO8859_1
	case j.ok:
		return ShiftJIS
	}
	return UTF8
}

type utf8Check struct {
	ok      bool
	pending int
	multi   int
}

func (c *utf8Check) feed(b byte) {
	if !c.ok {
		return
	}
	switch {
	case c.pending > 0:
		if b&0xc0 != 0x80 {
			c.ok = false
			return
		}
		c.pending--
	case b < 0x80:
	case b&0xe0 == 0xc0:
		c.pending, c.multi = 1, c.multi+1
	case b&0xf0 == 0xe0:
		c.pending, c.multi = 2, c.multi+1
	case b&0xf8 == 0xf0:
		c.pending, c.multi = 3, c.multi+1
	default:
		c.ok = false
	}
}

type latin1Check struct {
	ok        bool
	highOther int
}

func (c *latin1Check) feed(b byte) {
	if !c.ok {
		return
	}
	switch {
	case b >= 0x80 && b < 0xa0:
		c.ok = false
	case b >= 0xa0 && (b < 0xc0 || b == 0xd7 || b == 0xf7):
		c.highOther++
	}
}

type sjisCheck struct {
	ok        bool
	pending   int
	kana      int
	curKana   int
	curDouble int
	maxKana   int
	maxDouble int
}

func (c *sjisCheck) feed(b byte) {
	if !c.ok {
		return
	}
	switch {
	case c.pending > 0:
		if b < 0x40 || b == 0x7f || b > 0xfc {
			c.ok = false
			return
		}
		c.pending--
	case b == 0x80 || b == 0xa0 || b > 0xef:
		c.ok = false
	case b > 0xa0 && b < 0xe0:
		// half width katakana
		c.kana++
		c.curDouble = 0
		c.curKana++
		c.maxKana = max(c.maxKana, c.curKana)
	case b > 0x7f:
		c.pending++
		c.curKana = 0
		c.curDouble++
		c.maxDouble = max(c.maxDouble, c.curDouble)
	default:
		c.curKana, c.curDouble = 0, 0
	}
}
