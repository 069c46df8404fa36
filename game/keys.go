package game

import "sort"

// Key 一个逻辑按键（与输入设备无关）
type Key uint8

const (
	KeyUp Key = iota + 1
	KeyDown
	KeyLeft
	KeyRight
	KeySprint
	KeyCrouch
	KeyRoll
	KeyAttack
)

var keyNames = map[Key]string{
	KeyUp:     "up",
	KeyDown:   "down",
	KeyLeft:   "left",
	KeyRight:  "right",
	KeySprint: "sprint",
	KeyCrouch: "crouch",
	KeyRoll:   "roll",
	KeyAttack: "attack",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return "unknown"
}

// KeySet 本 Tick 按下的键集合（有序、去重）
type KeySet []Key

// NewKeySet 去重并排序
func NewKeySet(keys ...Key) KeySet {
	return KeySet(nil).Union(keys)
}

// Has 是否包含某个键
func (s KeySet) Has(k Key) bool {
	for _, x := range s {
		if x == k {
			return true
		}
	}
	return false
}

// Union 并集，结果去重且按值排序；不修改接收者
func (s KeySet) Union(keys []Key) KeySet {
	out := make(KeySet, 0, len(s)+len(keys))
	out = append(out, s...)
	for _, k := range keys {
		if !out.Has(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Direction 由方向键得到的单位向量（斜向已归一化）
func (s KeySet) Direction() Vec2 {
	var d Vec2
	if s.Has(KeyUp) {
		d.Y--
	}
	if s.Has(KeyDown) {
		d.Y++
	}
	if s.Has(KeyLeft) {
		d.X--
	}
	if s.Has(KeyRight) {
		d.X++
	}
	return d.Normalize()
}
