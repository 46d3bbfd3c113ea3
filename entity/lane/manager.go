package lane

import (
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/mathutil"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
)

const (
	// 空间索引角桶数
	indexBuckets = entity.SpatialBuckets
	// 角桶宽度（弧度）
	bucketWidth = utils.TwoPi / indexBuckets

	// 变道安全角窗口对应的弧线半宽与车长之比
	safetyWindowFactor = 1.5

	// 碰撞消解的最小保底净距（米）
	minBumperGap = .5
	// 碰撞消解中视为行进状态的速度下限（米/秒）
	collisionMovingV = 1.
)

// Manager 车道管理器
// 功能：管理全部车道、维护角桶空间索引、执行车道增删与碰撞消解
type Manager struct {
	ctx entity.ITaskContext

	lanes []*Lane
	// 角桶空间索引，下标为laneIndex*indexBuckets+bucket，prepare2时重建
	buckets [][]*entity.VehicleNode
}

// NewManager 创建车道管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{ctx: ctx}
}

// Init 按运行时配置初始化车道
func (m *Manager) Init() {
	n := m.ctx.RuntimeConfig().Roadway.Lanes
	m.lanes = make([]*Lane, 0, n)
	for i := 0; i < n; i++ {
		m.lanes = append(m.lanes, newLane(m.ctx, i))
	}
	m.buckets = make([][]*entity.VehicleNode, n*indexBuckets)
	log.Debugf("init %d lanes", n)
}

// Reset 恢复配置文件中的车道布局
// 说明：调用前车辆必须已全部清空，车道链表整体重建
func (m *Manager) Reset() {
	m.ctx.RuntimeConfig().Roadway.Lanes = m.ctx.RuntimeConfig().File.Roadway.Lanes
	m.Init()
}

// Lane 获取指定序号车道
func (m *Manager) Lane(index int) entity.ILane {
	if index < 0 || index >= len(m.lanes) {
		log.Panicf("no lane %d", index)
	}
	return m.lanes[index]
}

// Lanes 获取全部车道
func (m *Manager) Lanes() []entity.ILane {
	lanes := make([]entity.ILane, len(m.lanes))
	for i, l := range m.lanes {
		lanes[i] = l
	}
	return lanes
}

// LaneCount 获取车道数
func (m *Manager) LaneCount() int {
	return len(m.lanes)
}

// OuterLane 获取最外侧车道
func (m *Manager) OuterLane() entity.ILane {
	return m.lanes[len(m.lanes)-1]
}

// Prepare 提交各车道链表缓冲并修复排序
// 说明：先完成全部车道的移除，再执行添加，
// 保证跨车道迁移的结点不会在两条车道同时存在
func (m *Manager) Prepare() {
	parallel.GoFor(m.lanes, func(l *Lane) { l.prepareRemove() })
	parallel.GoFor(m.lanes, func(l *Lane) { l.prepareAdd() })
}

// Prepare2 构建侧向链接、统计车辆数并重建空间索引
func (m *Manager) Prepare2() {
	parallel.GoFor(m.lanes, func(l *Lane) { l.prepare2() })
	m.rebuildIndex()
}

// rebuildIndex 重建角桶空间索引
func (m *Manager) rebuildIndex() {
	if len(m.buckets) != len(m.lanes)*indexBuckets {
		m.buckets = make([][]*entity.VehicleNode, len(m.lanes)*indexBuckets)
	}
	for i := range m.buckets {
		m.buckets[i] = m.buckets[i][:0]
	}
	for li, l := range m.lanes {
		base := li * indexBuckets
		for node := l.vehicles.list.First(); node != nil; node = node.Next() {
			b := bucketOf(node.Theta)
			m.buckets[base+b] = append(m.buckets[base+b], node)
		}
	}
}

func bucketOf(theta float64) int {
	b := int(utils.WrapTheta(theta) / bucketWidth)
	if b >= indexBuckets {
		b = indexBuckets - 1
	}
	return b
}

// QueryNear 查询指定车道theta附近的车辆结点
// 参数：
//
//	theta: 查询角位置（弧度）
//	laneIndex: 车道序号
//	spread: 向前后各扩展的桶数
//
// 返回：命中桶内的全部车辆结点（含变道影子结点）
func (m *Manager) QueryNear(theta float64, laneIndex int, spread int) []*entity.VehicleNode {
	if laneIndex < 0 || laneIndex >= len(m.lanes) {
		return nil
	}
	if spread > indexBuckets/2 {
		spread = indexBuckets / 2
	}
	base := laneIndex * indexBuckets
	center := bucketOf(theta)
	var nodes []*entity.VehicleNode
	for d := -spread; d <= spread; d++ {
		b := ((center+d)%indexBuckets + indexBuckets) % indexBuckets
		nodes = append(nodes, m.buckets[base+b]...)
	}
	return nodes
}

// queryBucketRing 查询与中心桶相距spread的桶（spread为0时只有中心桶）
func (m *Manager) queryBucketRing(center, laneIndex, spread int) []*entity.VehicleNode {
	base := laneIndex * indexBuckets
	if spread == 0 {
		return m.buckets[base+center]
	}
	if spread > indexBuckets/2 {
		return nil
	}
	b1 := ((center+spread)%indexBuckets + indexBuckets) % indexBuckets
	b2 := ((center-spread)%indexBuckets + indexBuckets) % indexBuckets
	if b1 == b2 {
		return m.buckets[base+b1]
	}
	nodes := make([]*entity.VehicleNode, 0, len(m.buckets[base+b1])+len(m.buckets[base+b2]))
	nodes = append(nodes, m.buckets[base+b1]...)
	nodes = append(nodes, m.buckets[base+b2]...)
	return nodes
}

// NearestAround 查询指定车道theta前后最近车辆及其沿弧线距离
// 算法说明：从中心桶逐环向外扫描，前后都命中后再多扫两环消除桶边界误差
func (m *Manager) NearestAround(theta float64, laneIndex int) (ahead *entity.VehicleNode, aheadDist float64, behind *entity.VehicleNode, behindDist float64) {
	aheadDist, behindDist = mathutil.INF, mathutil.INF
	if laneIndex < 0 || laneIndex >= len(m.lanes) {
		return
	}
	r := m.lanes[laneIndex].Radius()
	center := bucketOf(theta)
	found := -1
	for spread := 0; spread <= indexBuckets/2; spread++ {
		for _, node := range m.queryBucketRing(center, laneIndex, spread) {
			df := utils.ForwardDelta(theta, node.Theta) * r
			db := utils.ForwardDelta(node.Theta, theta) * r
			if df < aheadDist {
				aheadDist, ahead = df, node
			}
			if db < behindDist {
				behindDist, behind = db, node
			}
		}
		if found < 0 && ahead != nil && behind != nil {
			found = spread
		}
		if found >= 0 && spread >= found+2 {
			break
		}
	}
	return
}

// IsLaneChangeSafe 判断目标车道theta附近角窗口内是否无车
// 功能：变道与匝道汇入的最终安全门，窗口半宽为1.5倍车长对应的弧长
func (m *Manager) IsLaneChangeSafe(target entity.ILane, theta float64, self entity.IVehicle) bool {
	roadway := m.ctx.RuntimeConfig().Roadway
	window := safetyWindowFactor * roadway.VehicleLength / target.Radius()
	spread := int(window/bucketWidth) + 1
	for _, node := range m.QueryNear(theta, target.Index(), spread) {
		if self != nil && node.Value.ID() == self.ID() {
			continue
		}
		if utils.AbsDelta(theta, node.Theta) < window {
			return false
		}
	}
	return true
}

// AddLane 在最外侧新增一条车道
// 返回：新车道序号
func (m *Manager) AddLane() int {
	index := len(m.lanes)
	m.lanes = append(m.lanes, newLane(m.ctx, index))
	m.ctx.RuntimeConfig().Roadway.Lanes = len(m.lanes)
	log.Infof("add lane %d", index)
	return index
}

// RemoveLane 删除最外侧车道
// 功能：被删车道上的车辆立即重定位到新的最外侧车道，
// 涉及被删车道的变道过程被中止
// 边界情况：仅剩一条车道时忽略并告警
func (m *Manager) RemoveLane() {
	if len(m.lanes) <= 1 {
		log.Warn("cannot remove the only lane")
		return
	}
	removed := m.lanes[len(m.lanes)-1]
	target := m.lanes[len(m.lanes)-2]
	// 先提交链表缓冲：上一步刚发起变道或迁移的结点还留在缓冲中，
	// 结点归属与运行时车道一致后才能安全迁移
	m.Prepare()
	for _, v := range m.ctx.VehicleManager().Vehicles() {
		if v.IsRemoved() {
			continue
		}
		// 迁移判定必须基于运行时车道，快照仍是上一步的旧状态
		if v.RuntimeLane().Index() == removed.index {
			v.ForceLane(target)
		} else if origin := v.RuntimeLCOrigin(); origin != nil && origin.Index() == removed.index {
			// 原车道被删，就地完成变道
			v.ForceLane(v.RuntimeLane())
		}
	}
	// 兜底：尚未提交进车辆数组的新生成车辆
	for node := removed.vehicles.list.First(); node != nil; {
		next := node.Next()
		node.Value.ForceLane(target)
		node = next
	}
	m.lanes = m.lanes[:len(m.lanes)-1]
	m.ctx.RuntimeConfig().Roadway.Lanes = len(m.lanes)
	log.Infof("remove lane %d", removed.index)
}

// ResolveOverlaps 碰撞消解
// 功能：更新阶段结束后的串行兜底，保证任何车对的保底净距
// 算法说明：
// 1. 按运行时车道分组，组内按运行时角位置升序排列
// 2. 依次检查相邻车对（含跨越2π的首尾车对）
// 3. 净距不足且两车都在行进时，后车压速至前车八成并硬制动；
//    否则视为静止重叠，回退后车位置恢复保底净距并将速度与加速度清零
// 4. 每次消解都为后车累积拥堵挫败计时
func (m *Manager) ResolveOverlaps(dt float64) {
	groups := make([][]entity.IVehicle, len(m.lanes))
	for _, v := range m.ctx.VehicleManager().Vehicles() {
		if v.IsRemoved() {
			continue
		}
		li := v.RuntimeLaneIndex()
		if li < 0 || li >= len(groups) {
			continue
		}
		groups[li] = append(groups[li], v)
	}
	roadway := m.ctx.RuntimeConfig().Roadway
	for li, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].RuntimeTheta() < group[j].RuntimeTheta()
		})
		r := roadway.LaneRadius(li)
		for i := range group {
			follower := group[i]
			leader := group[(i+1)%len(group)]
			delta := utils.ForwardDelta(follower.RuntimeTheta(), leader.RuntimeTheta())
			gap := delta*r - leader.Length()
			if gap >= minBumperGap {
				continue
			}
			if follower.RuntimeV() > collisionMovingV && leader.RuntimeV() > collisionMovingV {
				follower.ResolveSlowdown(leader.RuntimeV())
			} else {
				follower.ResolvePushBack(math.Min(minBumperGap-gap, delta*r) / r)
				follower.ResolveStop()
				log.Debugf("push back %s behind %s in lane %d", follower, leader, li)
			}
			follower.ResolveStuck(dt)
		}
	}
}
