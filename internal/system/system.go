package system

import (
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits поднимает лимит открытых файлов: при -workers каждый
// поток держит исходник и временный файл результата.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn().Err(err).Msg("не удалось получить лимит файлов")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn().Err(err).Msg("не удалось установить лимит файлов")
	} else {
		log.Debug().Uint64("nofile", uint64(rLimit.Cur)).Msg("системный лимит открытых файлов увеличен")
	}
}

// WorkerMemory - грубая оценка пиковой памяти на одну страницу в работе:
// декодированная страница, ее Mat и кандидаты заливки для A4 при 300 DPI.
const WorkerMemory = 256 << 20

type Host struct {
	LogicalCPUs     int
	TotalMemory     uint64
	AvailableMemory uint64
}

// Probe читает число CPU и объем памяти. Непрочитанные поля остаются нулевыми.
func Probe() (Host, error) {
	var h Host
	n, err := cpu.Counts(true)
	if err != nil {
		return h, err
	}
	h.LogicalCPUs = n

	vm, err := mem.VirtualMemory()
	if err != nil {
		return h, err
	}
	h.TotalMemory = vm.Total
	h.AvailableMemory = vm.Available
	return h, nil
}

// ClampWorkers ограничивает n числом логических CPU и доступной памятью.
// Результат не меньше 1.
func (h Host) ClampWorkers(n int) int {
	if h.LogicalCPUs > 0 && n > h.LogicalCPUs {
		n = h.LogicalCPUs
	}
	if h.AvailableMemory > 0 {
		if fit := int(h.AvailableMemory / WorkerMemory); n > fit {
			n = fit
		}
	}
	return max(1, n)
}

func (h Host) Log() {
	log.Info().
		Int("cpus", h.LogicalCPUs).
		Uint64("mem_total_mb", h.TotalMemory>>20).
		Uint64("mem_available_mb", h.AvailableMemory>>20).
		Msg("ресурсы хоста")
}
