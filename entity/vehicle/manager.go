package vehicle

import (
	"sort"
	"sync"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/container"
)

// 自然生成与汇入共用的前后净距门槛（车长倍数）
const (
	spawnAheadGapLengths  = 3.
	spawnBehindGapLengths = 4.
	// 生成初速度与限速之比
	spawnSpeedRatio = .8
	// 初始撒布车辆初速度与限速之比
	seedSpeedRatio = .5
)

// GlobalRuntime 全局行驶统计
type GlobalRuntime struct {
	// 累计行驶时间（辆·秒）
	TravelTime float64
	// 累计行驶里程（米）
	TravelDistance float64
}

type globalRuntime struct {
	GlobalRuntime
	mtx sync.Mutex
}

func (g *globalRuntime) record(dt, ds float64) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.TravelTime += dt
	g.TravelDistance += ds
}

// Manager 车辆管理器
type Manager struct {
	ctx entity.ITaskContext

	vehicles *container.IncrementalArray[*Vehicle]
	data     map[int32]*Vehicle
	nextID   int32
	// 允许生成的驾驶风格及抽取权重
	archetypes       []entity.Archetype
	archetypeWeights []float64

	globalRuntime globalRuntime
}

// NewManager 创建车辆管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:      ctx,
		vehicles: container.NewIncrementalArray[*Vehicle](),
		data:     make(map[int32]*Vehicle),
	}
}

// Init 解析风格白名单并撒布初始车辆
func (m *Manager) Init() {
	control := m.ctx.RuntimeConfig().File.Control
	m.SetArchetypes(control.Archetypes)
	if control.InitialVehicles > 0 {
		m.SpawnEvenly(control.InitialVehicles)
	}
}

// SetArchetypes 设置允许生成的驾驶风格白名单
// 边界情况：空白名单或全部非法时恢复默认构成
func (m *Manager) SetArchetypes(names []string) {
	var archetypes []entity.Archetype
	var weights []float64
	for _, s := range names {
		if !entity.IsValidArchetype(s) {
			log.Errorf("ignore invalid archetype %q", s)
			continue
		}
		archetypes = append(archetypes, entity.Archetype(s))
		weights = append(weights, 1)
	}
	if len(archetypes) == 0 {
		// 默认风格构成：普通为主，激进次之，谨慎最少
		archetypes = entity.Archetypes()
		weights = []float64{.5, .3, .2}
	}
	m.archetypes = archetypes
	m.archetypeWeights = weights
}

// Get 获取指定ID车辆
func (m *Manager) Get(id int32) (entity.IVehicle, bool) {
	v, ok := m.data[id]
	if !ok {
		return nil, false
	}
	return v, true
}

// Count 获取在道车辆数
func (m *Manager) Count() int {
	return len(m.data)
}

// Vehicles 获取全部在道车辆
func (m *Manager) Vehicles() []entity.IVehicle {
	vehicles := make([]entity.IVehicle, 0, len(m.vehicles.Data()))
	for _, v := range m.vehicles.Data() {
		vehicles = append(vehicles, v)
	}
	return vehicles
}

// Global 获取全局行驶统计
func (m *Manager) Global() GlobalRuntime {
	m.globalRuntime.mtx.Lock()
	defer m.globalRuntime.mtx.Unlock()
	return m.globalRuntime.GlobalRuntime
}

// DrawArchetype 按权重抽取驾驶风格，仅限串行阶段调用
func (m *Manager) DrawArchetype() entity.Archetype {
	return m.archetypes[m.ctx.Generator().DiscreteDistribution(m.archetypeWeights)]
}

// Spawn 生成车辆
// 说明：车辆即时加入管理器，车道链表结点在下一步Prepare时提交
func (m *Manager) Spawn(option entity.VehicleOption) entity.IVehicle {
	laneCount := m.ctx.LaneManager().LaneCount()
	if option.LaneIndex < 0 || option.LaneIndex >= laneCount {
		log.Errorf("spawn with bad lane %d, clamped", option.LaneIndex)
		option.LaneIndex = laneCount - 1
	}
	id := m.nextID
	m.nextID++
	v := newVehicle(m.ctx, m, id, option)
	m.vehicles.Add(v)
	m.data[id] = v
	v.runtime.Lane.AddVehicle(v.node)
	log.Debugf("spawn %s", v)
	return v
}

// Despawn 移除车辆
func (m *Manager) Despawn(veh entity.IVehicle) {
	v, ok := m.data[veh.ID()]
	if !ok || v.runtime.Removed {
		return
	}
	v.runtime.Removed = true
	v.snapshot.Removed = true
	v.runtime.Lane.RemoveVehicle(v.node)
	if v.runtime.LC.IsLC {
		v.runtime.LC.Origin.RemoveVehicle(v.shadowNode)
	}
	delete(m.data, v.id)
	m.vehicles.Remove(v)
	log.Debugf("despawn %s", v)
}

// Clear 移除全部车辆（含尚未提交的新生成车辆）
func (m *Manager) Clear() {
	ids := lo.Keys(m.data)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m.Despawn(m.data[id])
	}
}

// SpawnEvenly 沿各车道等角距撒布车辆
func (m *Manager) SpawnEvenly(count int) {
	laneCount := m.ctx.LaneManager().LaneCount()
	limit := m.ctx.RuntimeConfig().Roadway.SpeedLimit
	counts := make([]int, laneCount)
	for i := 0; i < count; i++ {
		counts[i%laneCount]++
	}
	for li, n := range counts {
		for k := 0; k < n; k++ {
			m.Spawn(entity.VehicleOption{
				Theta:     utils.TwoPi*float64(k)/float64(n) + .1*float64(li),
				LaneIndex: li,
				V:         seedSpeedRatio * limit,
				Archetype: m.DrawArchetype(),
			})
		}
	}
}

// TrySpawnNatural 主路自然生成
// 功能：按配置流量随机尝试生成，生成点前后净距不足时放弃本次尝试
func (m *Manager) TrySpawnNatural(dt float64) {
	rate := m.ctx.RuntimeConfig().SpawnRate
	if rate <= 0 {
		return
	}
	gen := m.ctx.Generator()
	if !gen.PTrue(rate * dt) {
		return
	}
	roadway := m.ctx.RuntimeConfig().Roadway
	laneIndex := gen.Intn(m.ctx.LaneManager().LaneCount())
	theta := gen.Float64() * utils.TwoPi
	ahead, aheadDist, behind, behindDist := m.ctx.LaneManager().NearestAround(theta, laneIndex)
	if ahead != nil && aheadDist < spawnAheadGapLengths*roadway.VehicleLength {
		return
	}
	if behind != nil && behindDist < spawnBehindGapLengths*roadway.VehicleLength {
		return
	}
	m.Spawn(entity.VehicleOption{
		Theta:     theta,
		LaneIndex: laneIndex,
		V:         spawnSpeedRatio * roadway.SpeedLimit,
		Archetype: m.DrawArchetype(),
	})
}

// PrepareNodes 提交车辆集合增量并刷新链表结点键值
func (m *Manager) PrepareNodes() {
	m.vehicles.Prepare()
	parallel.GoFor(m.vehicles.Data(), func(v *Vehicle) { v.prepareNode() })
}

// Prepare 拷贝运行时状态为快照
func (m *Manager) Prepare() {
	parallel.GoFor(m.vehicles.Data(), func(v *Vehicle) { v.prepare() })
}

// Update 并行更新全部车辆
func (m *Manager) Update(dt float64) {
	parallel.GoFor(m.vehicles.Data(), func(v *Vehicle) { v.update(dt) })
}
