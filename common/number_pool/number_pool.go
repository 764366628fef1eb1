package number_pool

import (
	"sync/atomic"
)

/*
编号池：给每个正在处理的连接一个 1..maxVal 之间的编号，用于日志
*/
type NumberPool struct {
	numberArr  []uint32
	number     uint64
	currentNum int64
	maxVal     uint64
	add        uint64
}

/**
 * 创建一个编号池
 * @param		maxVal, add uint64		最大编号, 每次增加值
 * @return		*NumberPool				编号池对象的指针
 * func NewNumberPool(maxVal, add uint64) *NumberPool;
 */
func NewNumberPool(maxVal, add uint64) *NumberPool {
	if add == 0 {
		add = 1
	}
	return &NumberPool{
		numberArr: make([]uint32, maxVal+1),
		maxVal:    maxVal,
		add:       add,
	}
}

/**
 * 从编号池中取出一个未使用的编号
 * @param		nil
 * @return		uint64, bool	编号, 是否可取
 * func (n *NumberPool)Get() (uint64, bool);
 */
func (n *NumberPool) Get() (uint64, bool) {
	if atomic.AddInt64(&n.currentNum, 1) > int64(n.maxVal) {
		atomic.AddInt64(&n.currentNum, -1)
		return 0, false
	}
	// 最多找三圈
	for tries := uint64(0); tries < 3*n.maxVal; tries++ {
		i := atomic.AddUint64(&n.number, n.add)%n.maxVal + 1
		if atomic.CompareAndSwapUint32(&n.numberArr[i], 0, 1) {
			return i, true
		}
	}
	atomic.AddInt64(&n.currentNum, -1)
	return 0, false
}

/**
 * 将编号放入编号池中
 * @param		number uint64		编号
 * @return		nil
 * func (n *NumberPool)Put(number uint64);
 */
func (n *NumberPool) Put(number uint64) {
	if number == 0 || number > n.maxVal {
		return
	}
	if atomic.CompareAndSwapUint32(&n.numberArr[number], 1, 0) {
		atomic.AddInt64(&n.currentNum, -1)
	}
}

// 正在使用的编号数
func (n *NumberPool) InUse() int {
	return int(atomic.LoadInt64(&n.currentNum))
}
