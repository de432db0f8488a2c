package handlers

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wonny/aegis-risk/internal/risk"
)

// reportCacheKey 기준일 + 입력 지문 + 리포트 파라미터
// 같은 기준일이라도 포지션이나 가격이 바뀌면 다른 키가 된다.
func reportCacheKey(asof time.Time, fingerprint string, o risk.ReportOptions) string {
	return fmt.Sprintf("report:%s:%s:%d:%d:%g:%d:%d:%t",
		asof.Format("2006-01-02"), fingerprint,
		o.LookbackDays, o.HorizonDays, o.Alpha, o.Simulations, o.Seed, o.IncludeComponentVaR)
}

// inputFingerprint hashes the validated book and the full price matrix.
func inputFingerprint(engine *risk.Engine) string {
	d := xxhash.New()
	var buf [8]byte

	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	writeString := func(s string) {
		writeUint(uint64(len(s)))
		_, _ = d.WriteString(s)
	}

	positions := engine.Positions()
	writeUint(uint64(len(positions)))
	for _, p := range positions {
		writeString(p.Asset)
		writeString(p.AssetClass)
		writeString(p.Currency)
		writeUint(math.Float64bits(p.Quantity))
	}

	pm := engine.Prices()
	dates := pm.Dates()
	writeUint(uint64(len(dates)))
	for _, dt := range dates {
		writeUint(uint64(dt.Unix()))
	}
	for _, asset := range pm.Assets() {
		writeString(asset)
		col, _ := pm.Column(asset)
		for _, v := range col {
			writeUint(math.Float64bits(v))
		}
	}

	return strconv.FormatUint(d.Sum64(), 16)
}
