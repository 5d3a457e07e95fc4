package utils

import (
	"net"
	"net/netip"
	"strings"
)

// NormalizeOrigin 把请求来源地址规整成稳定的限流 key
// 同一地址的不同写法必须折叠成同一个 key：
//   - 去掉端口
//   - IPv4-mapped IPv6 (::ffff:1.2.3.4) 还原成 IPv4
//   - IPv6 统一成规范缩写形式，并按 /64 折叠
//     （同一机器常在 /64 内轮换接口标识，逐地址限流会被轻易绕过）
func NormalizeOrigin(remoteAddr string) string {
	raw := strings.TrimSpace(remoteAddr)
	if raw == "" {
		return "unknown"
	}

	// 可能带端口也可能不带
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	raw = strings.Trim(raw, "[]")

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		// 解析不了就原样返回，至少保证同一字符串落在同一个桶里
		return raw
	}

	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String()
	}

	// IPv6 按 /64 前缀折叠
	prefix, err := addr.Prefix(64)
	if err != nil {
		return addr.String()
	}
	return prefix.String()
}
