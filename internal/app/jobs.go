package app

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrUnknownJob is returned by RunJob for names not in the job table.
var ErrUnknownJob = errors.New("unknown job")

type schedJob struct {
	name string
	spec string
	run  func()
	id   cron.EntryID
}

// JobInfo describes a background job and its schedule.
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

func (a *Application) jobTable() []*schedJob {
	if a.jobs == nil {
		a.jobs = []*schedJob{
			{name: "system_monitor", spec: "@every 30s", run: func() {
				go a.SchedSystemMonitorTask()
				go a.SchedProcessMonitorTask()
			}},
			{name: "catalog_warmup", spec: "@every 5m", run: a.SchedCatalogWarmupTask},
			{name: "oprlog_cleanup", spec: "@daily", run: a.SchedClearOprLogTask},
		}
	}
	return a.jobs
}

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	if loc == nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	for _, job := range a.jobTable() {
		id, err := a.sched.AddFunc(job.spec, job.run)
		if err != nil {
			zap.S().Errorf("init job %s error %s", job.name, err.Error())
			continue
		}
		job.id = id
	}

	a.sched.Start()
}

// Jobs lists the background jobs. Next and Prev are zero until the
// scheduler has been started.
func (a *Application) Jobs() []JobInfo {
	table := a.jobTable()
	out := make([]JobInfo, 0, len(table))
	for _, job := range table {
		info := JobInfo{Name: job.name, Spec: job.spec}
		if a.sched != nil && job.id != 0 {
			entry := a.sched.Entry(job.id)
			info.Next, info.Prev = entry.Next, entry.Prev
		}
		out = append(out, info)
	}
	return out
}

// RunJob runs the named job once on the calling goroutine.
func (a *Application) RunJob(name string) error {
	for _, job := range a.jobTable() {
		if job.name == name {
			zap.L().Info("run job", zap.String("namespace", "app"), zap.String("job", name))
			job.run()
			return nil
		}
	}
	return errors.Wrap(ErrUnknownJob, name)
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // percentage * 100
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("storefront_cpuuse", int64(cpuuse*100))
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("storefront_memuse", int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedCatalogWarmupTask keeps the snapshot cache warm and drops snapshots
// past their gc time.
func (a *Application) SchedCatalogWarmupTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if a.snapshots == nil {
		return
	}
	if a.snapshots.Collect() {
		zap.S().Info("catalog snapshot collected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	snap, err := a.snapshots.Get(ctx)
	if err != nil {
		zap.S().Warnf("catalog warmup failed: %v", err)
		return
	}
	metrics.SetGauge("storefront_catalog_products", int64(snap.Len()))
}

// SchedClearOprLogTask deletes operation logs past the retention setting.
func (a *Application) SchedClearOprLogTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	days := 365
	if a.configManager != nil {
		if v := a.configManager.GetInt("system", "oprlog_retention_days"); v > 0 {
			days = v
		}
	}
	a.gormDB.
		Where("opt_time < ?", time.Now().Add(-time.Hour*24*time.Duration(days))).
		Delete(&domain.SysOprLog{})
}
