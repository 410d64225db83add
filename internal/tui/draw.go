package tui

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/clawface/internal/face"
)

const eyeGap = "     "

var eyeShapes = map[string][3]string{
	face.EyeNormal:   {"╭───╮", "│%s│", "╰───╯"},
	face.EyeConfused: {"╭───╮", "│%s│", "╰───╯"},
	face.EyeFocused:  {"▄▄▄▄▄", "│%s│", "╰───╯"},
	face.EyeHalfOpen: {"▀▀▀▀▀", "│%s│", "╰───╯"},
	face.EyeWorking:  {"┌───┐", "│%s│", "└───┘"},
	face.EyeHappy:    {"     ", "╭───╮", "     "},
	face.EyeSleepy:   {"     ", "     ", "─────"},
	face.EyeCool:     {"▄▄▄▄▄", "█████", "     "},
	face.EyeHeart:    {"     ", "  ♥  ", "     "},
	face.EyeStar:     {"  ╷  ", "╶ ★ ╴", "  ╵  "},
}

var closedEye = [3]string{"     ", "─────", "     "}

// eyes draws both eyes as three rows.
func eyes(st face.State) []string {
	shape, ok := eyeShapes[st.Def.EyeStyle]
	if !ok {
		shape = eyeShapes[face.EyeNormal]
	}
	if st.Blinking && st.Def.CanBlink() {
		shape = closedEye
	}
	pupil := pupilRow(st.PupilX)
	rows := make([]string, 3)
	for i, row := range shape {
		if strings.Contains(row, "%s") {
			row = strings.Replace(row, "%s", pupil, 1)
		}
		right := row
		if st.Def.EyeStyle == face.EyeConfused && i == 0 {
			right = "╭─?─╮"
		}
		rows[i] = row + eyeGap + right
	}
	return rows
}

// pupilRow places the pupil in the three-cell interior by horizontal offset.
func pupilRow(x float64) string {
	idx := 1 + int(math.Max(-1, math.Min(1, math.Round(x/4))))
	cells := []rune("   ")
	cells[idx] = '●'
	return string(cells)
}

var pathNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// mouthGlyph approximates an SVG mouth path with one line of text. The
// sign and size of the quadratic control point's offset from the chord
// give the curvature.
func mouthGlyph(path string, open bool) string {
	if open {
		return "( O )"
	}
	var nums []float64
	for _, s := range pathNumber.FindAllString(path, -1) {
		n, _ := strconv.ParseFloat(s, 64)
		nums = append(nums, n)
	}
	if len(nums) < 4 {
		return "───"
	}
	x1, y1 := nums[0], nums[1]
	x2, y2 := nums[len(nums)-2], nums[len(nums)-1]
	bend := 0.0
	if strings.Contains(path, "Q") && len(nums) >= 6 {
		bend = nums[3] - (y1+y2)/2
	}
	n := max(2, int(math.Round(math.Abs(x2-x1)/10)))

	switch {
	case bend >= 20:
		return `\` + strings.Repeat("▁", n) + `/`
	case bend >= 6:
		return `\` + strings.Repeat("_", n) + `/`
	case bend <= -6:
		return "/" + strings.Repeat("‾", n) + `\`
	default:
		return strings.Repeat("─", n+2)
	}
}
