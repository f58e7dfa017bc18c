//go:build !linux

package dupfind

func adviseSequential(file any) {}
