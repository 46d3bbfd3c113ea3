package utils

import "math"

// TwoPi 整环角度
const TwoPi = 2 * math.Pi

// WrapTheta 将角度归一化到[0, 2π)
func WrapTheta(theta float64) float64 {
	theta = math.Mod(theta, TwoPi)
	if theta < 0 {
		theta += TwoPi
	}
	return theta
}

// ForwardDelta 计算从from沿行进方向（角度增大方向）到to的角距离
// 返回：角距离∈[0, 2π)
func ForwardDelta(from, to float64) float64 {
	return WrapTheta(to - from)
}

// AbsDelta 计算两个角度间的最短角距离
// 返回：角距离∈[0, π]
func AbsDelta(a, b float64) float64 {
	d := ForwardDelta(a, b)
	if d > math.Pi {
		d = TwoPi - d
	}
	return d
}
