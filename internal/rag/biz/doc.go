// Package biz 提供课程问答服务的业务逻辑层。
//
// 导入流水线（离线）：
//   - Embedder: 批量向量化，校验输出数量
//   - Writer: 以当前记录数为偏移分配 id，每个视频一次写入
//   - Ingestor: 按目录顺序处理视频（分段、翻译、向量化、写入）
//
// 查询路径（在线）：
//   - Retriever: 问题向量化后做余弦检索
//   - Assemble: 拼接上下文块并按 URL 去重来源
//   - Generator: 构建提示词并调用 LLM
//   - RAGService: 组合以上组件，带就绪标记
package biz
